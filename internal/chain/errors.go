/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package chain

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Rejection codes are the contract's custom error names.
const (
	CodeAlreadyEntered   = "Raffle__AlreadyEntered"
	CodeSendMoreToEnter  = "Raffle__SendMoreToEnterRaffle"
	CodeTransferFailed   = "Raffle__TransferFailed"
	CodeRaffleNotOpen    = "Raffle_RaffleNotOpen"
	CodeUpkeepNotNeeded  = "Raffle_UpkeepNotNeeded"
	CodeUnknown          = "Unknown"
	unknownRejectionText = "The transaction was rejected for an unknown reason."
)

var txErrorReasons = map[string]string{
	CodeAlreadyEntered:  "You have already entered the raffle! One entry per wallet.",
	CodeSendMoreToEnter: "You need to send more ETH to enter the raffle.",
	CodeTransferFailed:  "The transfer of funds failed.",
	CodeRaffleNotOpen:   "The raffle is not open right now.",
	CodeUpkeepNotNeeded: "Upkeep not needed: balance, participants or state invalid.",
}

// Checked in order when matching on message text.
var knownRejectionCodes = []string{
	CodeAlreadyEntered,
	CodeSendMoreToEnter,
	CodeTransferFailed,
	CodeRaffleNotOpen,
	CodeUpkeepNotNeeded,
}

// TxRejection is a contract-level refusal of a transaction. It is final: retrying
// the same call will be rejected again.
type TxRejection struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func (r *TxRejection) Error() string {
	return fmt.Sprintf("transaction rejected (%s): %s", r.Code, r.Reason)
}

// Known reports whether the rejection maps to one of the contract's custom errors.
func (r *TxRejection) Known() bool {
	_, ok := txErrorReasons[r.Code]
	return ok
}

func newRejection(code string) *TxRejection {
	reason, ok := txErrorReasons[code]
	if !ok {
		return &TxRejection{Code: CodeUnknown, Reason: unknownRejectionText}
	}
	return &TxRejection{Code: code, Reason: reason}
}

// ClassifyTxError maps a transaction or call error to a categorized rejection.
// Returns nil for a nil error.
func ClassifyTxError(err error) *TxRejection {
	if err == nil {
		return nil
	}

	var rejection *TxRejection
	if errors.As(err, &rejection) {
		return rejection
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if code, ok := decodeRevertData(dataErr.ErrorData()); ok {
			return newRejection(code)
		}
	}

	return ClassifyRevert(err.Error(), "")
}

// ClassifyRevert maps a revert message and optional hex-encoded revert data to a rejection.
func ClassifyRevert(message, data string) *TxRejection {
	if data != "" {
		if code, ok := decodeRevertData(data); ok {
			return newRejection(code)
		}
	}

	for _, code := range knownRejectionCodes {
		if strings.Contains(message, code) {
			return newRejection(code)
		}
	}

	return newRejection(CodeUnknown)
}

// isRevert reports whether err came from the contract rather than the transport.
func isRevert(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}

	message := strings.ToLower(err.Error())
	if strings.Contains(message, "revert") {
		return true
	}
	return ClassifyRevert(err.Error(), "").Known()
}

func decodeRevertData(data any) (string, bool) {
	var raw []byte
	switch v := data.(type) {
	case string:
		decoded, err := hexutil.Decode(v)
		if err != nil {
			return "", false
		}
		raw = decoded
	case []byte:
		raw = v
	default:
		return "", false
	}

	if len(raw) < 4 {
		return "", false
	}

	for name, abiErr := range raffleABI.Errors {
		if bytes.Equal(abiErr.ID[:4], raw[:4]) {
			if _, known := txErrorReasons[name]; known {
				return name, true
			}
		}
	}
	return "", false
}
