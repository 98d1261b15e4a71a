package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const artifactExtension = ".json"

// Artifacts maps contract names to their loaded artifacts.
type Artifacts map[ContractName]Artifact

// Get returns the named artifact or an error naming the missing file.
func (a Artifacts) Get(name ContractName) (Artifact, error) {
	artifact, ok := a[name]
	if !ok {
		return Artifact{}, fmt.Errorf("artifact %s%s not loaded", name, artifactExtension)
	}
	return artifact, nil
}

// LoadArtifacts reads <dir>/<ContractName>.json for each requested contract.
func LoadArtifacts(dir string, names ...ContractName) (Artifacts, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("artifacts directory not found. Directory: '%s'", dir)
	}

	loaded := make(Artifacts, len(names))
	for _, name := range names {
		if _, ok := Contracts[name]; !ok {
			return nil, fmt.Errorf("unknown contract %s", name)
		}

		path := filepath.Join(dir, string(name)+artifactExtension)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
		}

		artifact, err := ParseArtifact(name, data)
		if err != nil {
			return nil, err
		}
		loaded[name] = artifact
	}

	return loaded, nil
}

// ParseArtifact decodes truffle, waffle, hardhat and forge style artifacts.
// The bytecode may be a hex string (with or without 0x) or forge's
// {"object": "0x..."} form. An artifact without bytecode is accepted; it
// can be bound but not deployed.
func ParseArtifact(name ContractName, data []byte) (Artifact, error) {
	var raw struct {
		ABI      json.RawMessage `json:"abi"`
		Bytecode json.RawMessage `json:"bytecode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Artifact{}, fmt.Errorf("failed to parse artifact %s: %w", name, err)
	}
	if len(raw.ABI) == 0 {
		return Artifact{}, fmt.Errorf("artifact %s has no abi", name)
	}

	parsedABI, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to parse ABI for %s: %w", name, err)
	}

	bytecode, err := decodeBytecode(raw.Bytecode)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to decode bytecode for %s: %w", name, err)
	}

	return Artifact{
		Name:     name,
		ABI:      parsedABI,
		Bytecode: bytecode,
	}, nil
}

func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var hexStr string
	if err := json.Unmarshal(raw, &hexStr); err != nil {
		var object struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &object); err != nil {
			return nil, errors.New("bytecode is neither a string nor an object")
		}
		hexStr = object.Object
	}

	hexStr = strings.TrimSpace(hexStr)
	if hexStr == "" || hexStr == "0x" {
		return nil, nil
	}
	if strings.Contains(hexStr, "__") {
		return nil, errors.New("bytecode has unlinked library references")
	}
	if !strings.HasPrefix(hexStr, "0x") {
		hexStr = "0x" + hexStr
	}

	return hexutil.Decode(hexStr)
}
