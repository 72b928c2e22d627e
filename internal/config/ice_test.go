package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseICEServersJSON(t *testing.T) {
	servers, err := ParseICEServersJSON(`[{"urls":"stun:stun.l.google.com:19302"}]`)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, servers[0].URLs)
}

func TestParseICEServersJSONURLList(t *testing.T) {
	raw := `[{"urls":["stun:a.example:3478"," stun:b.example:3478 "]}]`
	servers, err := ParseICEServersJSON(raw)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, []string{"stun:a.example:3478", "stun:b.example:3478"}, servers[0].URLs)
}

func TestParseICEServersJSONTurnCredentials(t *testing.T) {
	raw := `[{"urls":"turn:turn.example:3478","username":"u","credential":"p"}]`
	servers, err := ParseICEServersJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "u", servers[0].Username)
	assert.Equal(t, "p", servers[0].Credential)

	_, err = ParseICEServersJSON(`[{"urls":"turn:turn.example:3478","username":"u"}]`)
	assert.Error(t, err, "turn without credential must be rejected")

	_, err = ParseICEServersJSON(`[{"urls":"turn:turn.example:3478"}]`)
	assert.Error(t, err, "turn without username must be rejected")
}

func TestParseICEServersJSONRejectsUnknownScheme(t *testing.T) {
	_, err := ParseICEServersJSON(`[{"urls":"http://example.com"}]`)
	assert.Error(t, err)
}

func TestParseICEServersJSONEmpty(t *testing.T) {
	servers, err := ParseICEServersJSON("")
	require.NoError(t, err)
	assert.Nil(t, servers)

	_, err = ParseICEServersJSON(`[{"urls":[]}]`)
	assert.Error(t, err, "server without urls must be rejected")
}
