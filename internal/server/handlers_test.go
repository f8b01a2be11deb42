package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"iopls/internal/symbols"
)

func TestInitializeResultWireShape(t *testing.T) {
	res := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    1,
				Save:      saveOptions{IncludeText: true},
			},
			DefinitionProvider: true,
			HoverProvider:      true,
		},
		ServerInfo: serverInfo{Name: "iopls", Version: "0.1.0"},
	}

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	caps, ok := decoded["capabilities"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, caps["definitionProvider"])
	assert.Equal(t, true, caps["hoverProvider"])

	sync, ok := caps["textDocumentSync"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, sync["openClose"])
	assert.Equal(t, float64(1), sync["change"], "full document sync")
}

func TestPositionConversionRoundTrip(t *testing.T) {
	p := protocol.Position{Line: 12, Character: 7}
	assert.Equal(t, symbols.Position{Line: 12, Col: 7}, position(p))

	r := symbols.Range{
		Start: symbols.Position{Line: 1, Col: 2},
		End:   symbols.Position{Line: 1, Col: 9},
	}
	pr := protoRange(r)
	assert.Equal(t, uint32(1), pr.Start.Line)
	assert.Equal(t, uint32(2), pr.Start.Character)
	assert.Equal(t, uint32(9), pr.End.Character)
}
