package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/pkg/config"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"081234567890", "6281234567890"},
		{"+62 812-3456-7890", "6281234567890"},
		{"6281234567890", "6281234567890"},
		{"812 3456 7890", "6281234567890"},
		{"abc", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePhone(tc.in), "input %q", tc.in)
	}
}

func TestRenderTemplate(t *testing.T) {
	out := RenderTemplate("Ananda {nama} ({nis}, {kelas}) hadir pukul {waktu} tanggal {tanggal}, status {status}.", map[string]string{
		"nama":    "Ayu",
		"nis":     "1001",
		"kelas":   "7A",
		"waktu":   "07:02",
		"tanggal": "15/04/2025",
		"status":  "Present",
	})
	assert.Equal(t, "Ananda Ayu (1001, 7A) hadir pukul 07:02 tanggal 15/04/2025, status Present.", out)

	assert.Equal(t, "hello {unknown}", RenderTemplate("hello {unknown}", map[string]string{"nama": "x"}))
}

type staticRoster struct {
	index models.RosterIndex
}

func (r staticRoster) Index(context.Context) (models.RosterIndex, error) {
	return r.index, nil
}

func TestClientSendMessage(t *testing.T) {
	var got gatewayRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(gatewayResponse{Status: true})
	}))
	defer server.Close()

	client := NewClient(config.NotificationConfig{
		GatewayURL: server.URL,
		APIKey:     "key",
		Sender:     "628000",
	}, nil)

	err := client.SendMessage(context.Background(), "0812-3456-7890", "hello")
	require.NoError(t, err)
	assert.Equal(t, "key", got.APIKey)
	assert.Equal(t, "6281234567890", got.Number)
	assert.Equal(t, "hello", got.Message)
}

func TestClientSendMessageGatewayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(gatewayResponse{Status: false, Msg: "invalid key"})
	}))
	defer server.Close()

	client := NewClient(config.NotificationConfig{GatewayURL: server.URL}, nil)
	err := client.SendMessage(context.Background(), "0812", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestDispatcherPicksTemplateByIntent(t *testing.T) {
	var messages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gatewayRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		messages = append(messages, req.Message)
		_ = json.NewEncoder(w).Encode(gatewayResponse{Status: true})
	}))
	defer server.Close()

	cfg := config.NotificationConfig{
		GatewayURL:       server.URL,
		TemplateCheckIn:  "in {nama}",
		TemplateCheckOut: "out {nama}",
		TemplateSick:     "sick {nama}",
		TemplateLeave:    "leave {nama}",
		TemplateAbsent:   "absent {nama}",
	}
	roster := staticRoster{index: models.RosterIndex{
		"1001": {NIS: "1001", Name: "Ayu", Cohort: "7A", GuardianContact: "0812"},
	}}
	d := NewDispatcher(NewClient(cfg, nil), roster, cfg, time.UTC, nil)
	ctx := context.Background()

	intents := []models.NotificationIntent{
		{NIS: "1001", Type: models.EventCheckIn, Status: models.StatusPresent},
		{NIS: "1001", Type: models.EventCheckOut, Status: models.StatusPresent},
		{NIS: "1001", Type: models.EventManual, Status: models.StatusSick},
		{NIS: "1001", Type: models.EventManual, Status: models.StatusLeave},
		{NIS: "1001", Type: models.EventManual, Status: models.StatusAbsent},
	}
	for _, intent := range intents {
		require.NoError(t, d.Dispatch(ctx, intent))
	}
	assert.Equal(t, []string{"in Ayu", "out Ayu", "sick Ayu", "leave Ayu", "absent Ayu"}, messages)
}

func TestDispatcherSkipsMissingGuardianContact(t *testing.T) {
	roster := staticRoster{index: models.RosterIndex{
		"1002": {NIS: "1002", Name: "Budi"},
	}}
	d := NewDispatcher(NewClient(config.NotificationConfig{GatewayURL: "http://invalid"}, nil), roster, config.NotificationConfig{}, time.UTC, nil)

	require.NoError(t, d.Dispatch(context.Background(), models.NotificationIntent{NIS: "1002", Type: models.EventCheckIn}))

	err := d.Dispatch(context.Background(), models.NotificationIntent{NIS: "9999", Type: models.EventCheckIn})
	require.Error(t, err)
}
