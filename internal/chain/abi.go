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
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract method, event and error names.
const (
	methodTimeUntilNextDraw = "getTimeUntilNextDraw"
	methodRaffleState       = "getRaffleState"
	methodNumberOfPlayers   = "getNumberOfPlayers"
	methodRoundId           = "getRoundId"
	methodEntranceFee       = "getEntranceFee"
	methodRecentWinner      = "getRecentWinner"
	methodEnterRaffle       = "enterRaffle"
)

const raffleABIJSON = `[
	{"type":"function","name":"getTimeUntilNextDraw","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getRaffleState","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"getNumberOfPlayers","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getRoundId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getEntranceFee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getRecentWinner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"enterRaffle","stateMutability":"payable","inputs":[],"outputs":[]},

	{"type":"event","name":"RaffleEntered","anonymous":false,"inputs":[{"name":"player","type":"address","indexed":true}]},
	{"type":"event","name":"WinnerPicked","anonymous":false,"inputs":[{"name":"player","type":"address","indexed":true}]},
	{"type":"event","name":"RaffleStarted","anonymous":false,"inputs":[]},
	{"type":"event","name":"RequestRaffleWinner","anonymous":false,"inputs":[{"name":"requestId","type":"uint256","indexed":true}]},

	{"type":"error","name":"Raffle__AlreadyEntered","inputs":[]},
	{"type":"error","name":"Raffle__SendMoreToEnterRaffle","inputs":[]},
	{"type":"error","name":"Raffle__TransferFailed","inputs":[]},
	{"type":"error","name":"Raffle_RaffleNotOpen","inputs":[]},
	{"type":"error","name":"Raffle_UpkeepNotNeeded","inputs":[
		{"name":"balance","type":"uint256"},
		{"name":"length","type":"uint256"},
		{"name":"raffleState","type":"uint256"}
	]}
]`

var raffleABI = mustParseABI(raffleABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid raffle contract ABI: %v", err))
	}
	return parsed
}
