package contracts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalABI = `[{"type":"function","name":"WETH","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}]`

func TestParseArtifact(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		bytecode []byte
		wantErr  string
	}{
		{
			name:     "truffle prefixed string",
			data:     `{"abi":` + minimalABI + `,"bytecode":"0x6001"}`,
			bytecode: []byte{0x60, 0x01},
		},
		{
			name:     "waffle bare hex",
			data:     `{"abi":` + minimalABI + `,"bytecode":"6002"}`,
			bytecode: []byte{0x60, 0x02},
		},
		{
			name:     "forge object",
			data:     `{"abi":` + minimalABI + `,"bytecode":{"object":"0x6003","linkReferences":{}}}`,
			bytecode: []byte{0x60, 0x03},
		},
		{
			name: "abi only",
			data: `{"abi":` + minimalABI + `}`,
		},
		{
			name:    "missing abi",
			data:    `{"bytecode":"0x00"}`,
			wantErr: "has no abi",
		},
		{
			name:    "unlinked library",
			data:    `{"abi":` + minimalABI + `,"bytecode":"0x73__$abc$__"}`,
			wantErr: "unlinked library",
		},
		{
			name:    "odd length",
			data:    `{"abi":` + minimalABI + `,"bytecode":"0x600"}`,
			wantErr: "failed to decode bytecode",
		},
		{
			name:    "not json",
			data:    `abi`,
			wantErr: "failed to parse artifact",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact, err := ParseArtifact(ContractNameRouter, []byte(tt.data))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, ContractNameRouter, artifact.Name)
			require.Equal(t, tt.bytecode, artifact.Bytecode)
			require.Contains(t, artifact.ABI.Methods, "WETH")
		})
	}
}

func TestLoadArtifacts(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`{"abi":` + minimalABI + `,"bytecode":"0x6001"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "UniswapV2Router02.json"), content, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "WETH9.json"), content, 0644))

	artifacts, err := LoadArtifacts(dir, ContractNameRouter, ContractNameWrappedNative)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	router, err := artifacts.Get(ContractNameRouter)
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x01}, router.Bytecode)

	_, err = artifacts.Get(ContractNameFactory)
	require.ErrorContains(t, err, "UniswapV2Factory.json not loaded")

	_, err = LoadArtifacts(dir, ContractNameFactory)
	require.ErrorContains(t, err, "failed to read artifact")

	_, err = LoadArtifacts(dir, ContractName("Multicall"))
	require.ErrorContains(t, err, "unknown contract Multicall")

	_, err = LoadArtifacts(filepath.Join(dir, "missing"), ContractNameRouter)
	require.ErrorContains(t, err, "artifacts directory not found")
}
