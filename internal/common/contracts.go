package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"raffle-sync-go/internal/models"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"
)

type DeploymentsConfig struct {
	Deployments []models.Deployment `yaml:"deployments"`
}

func LoadDeployments(contractsFile string) ([]models.Deployment, error) {
	var contractsPath string
	if filepath.IsAbs(contractsFile) {
		contractsPath = contractsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		contractsPath = filepath.Join(wd, contractsFile)
	}

	data, err := os.ReadFile(contractsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", contractsFile, err)
	}

	var config DeploymentsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", contractsFile, err)
	}

	if len(config.Deployments) == 0 {
		return nil, fmt.Errorf("%s defines no deployments", contractsFile)
	}

	for i, deployment := range config.Deployments {
		if deployment.Name == "" {
			return nil, fmt.Errorf("deployment at index %d missing name", i)
		}
		if deployment.ChainId == 0 {
			return nil, fmt.Errorf("deployment %s missing chain_id", deployment.Name)
		}
		if !ethcommon.IsHexAddress(deployment.Address) {
			return nil, fmt.Errorf("deployment %s has invalid address %q", deployment.Name, deployment.Address)
		}
	}

	return config.Deployments, nil
}

// SelectDeployment picks a deployment by name. An empty name is only allowed
// when exactly one deployment is defined.
func SelectDeployment(deployments []models.Deployment, name string) (models.Deployment, error) {
	if name == "" {
		if len(deployments) == 1 {
			return deployments[0], nil
		}
		return models.Deployment{}, fmt.Errorf("RAFFLE_DEPLOYMENT must be set when %d deployments are defined", len(deployments))
	}

	for _, deployment := range deployments {
		if strings.EqualFold(deployment.Name, name) {
			return deployment, nil
		}
	}

	return models.Deployment{}, fmt.Errorf("deployment %q not found", name)
}
