package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func resetFlags(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	cfgFile, seedFile, locale, timezone = "", "", "pt-BR", "America/Sao_Paulo"
	asJSON = false
	listTab, listQuery, listFilter = "", "", ""
	t.Cleanup(func() {
		cfgFile, seedFile, asJSON = "", "", false
		listTab, listQuery, listFilter = "", "", ""
	})
}

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestListCmdTable(t *testing.T) {
	resetFlags(t)
	cmd, out := newTestCmd()

	if err := runList(cmd, nil); err != nil {
		t.Fatalf("runList failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %d:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[1], "c1") || !strings.HasPrefix(lines[2], "c2") || !strings.HasPrefix(lines[3], "c3") {
		t.Fatalf("unexpected order:\n%s", out.String())
	}
	if !strings.Contains(lines[1], "78!") {
		t.Errorf("expected c1 flagged at risk: %s", lines[1])
	}
}

func TestListCmdRiskJSON(t *testing.T) {
	resetFlags(t)
	asJSON = true
	listFilter = "risk"
	cmd, out := newTestCmd()

	if err := runList(cmd, nil); err != nil {
		t.Fatalf("runList failed: %v", err)
	}

	var items []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(out.Bytes(), &items); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(items) != 2 || items[0].ID != "c1" || items[1].ID != "c2" {
		t.Fatalf("unexpected risk list: %+v", items)
	}
}

func TestListCmdRejectsUnknownFilter(t *testing.T) {
	resetFlags(t)
	listFilter = "vip"
	cmd, _ := newTestCmd()

	if err := runList(cmd, nil); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}

func TestShowCmd(t *testing.T) {
	resetFlags(t)
	cmd, out := newTestCmd()

	if err := runShow(cmd, []string{"c2"}); err != nil {
		t.Fatalf("runShow failed: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Tecnologia da Informação") || !strings.Contains(text, "Tem horário amanhã?") {
		t.Fatalf("unexpected transcript:\n%s", text)
	}

	if err := runShow(cmd, []string{"missing"}); err == nil {
		t.Fatal("expected error for unknown conversation")
	}
}

func TestCountsCmdWithSeedFile(t *testing.T) {
	resetFlags(t)
	seedFile = filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(seedFile, []byte(`
conversations:
  - id: a
    name: Ana
    state: done
    minutesAgo: 3
  - id: b
    name: Bruno
    riskScore: 90
    minutesAgo: 1
`), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	asJSON = true
	cmd, out := newTestCmd()

	if err := runCounts(cmd, nil); err != nil {
		t.Fatalf("runCounts failed: %v", err)
	}

	var counts struct {
		Waiting  int `json:"waiting"`
		Done     int `json:"done"`
		RiskHigh int `json:"riskHigh"`
	}
	if err := json.Unmarshal(out.Bytes(), &counts); err != nil {
		t.Fatalf("decode counts: %v", err)
	}
	if counts.Waiting != 1 || counts.Done != 1 || counts.RiskHigh != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestResolveSettingsPrecedence(t *testing.T) {
	resetFlags(t)
	t.Setenv("INBOX_LOCALE", "es")
	t.Setenv("INBOX_TIMEZONE", "")
	t.Setenv("INBOX_SEED_FILE", "")

	cfgFile = filepath.Join(t.TempDir(), "inboxctl.yaml")
	if err := os.WriteFile(cfgFile, []byte("locale: en\ntimezone: UTC\nseed-file: fixtures/inbox.yaml\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("seed", "", "")
	cmd.Flags().String("locale", "pt-BR", "")
	cmd.Flags().String("tz", "America/Sao_Paulo", "")

	v, err := newSettings(cmd.Flags())
	if err != nil {
		t.Fatalf("newSettings failed: %v", err)
	}
	if err := resolveSettings(v); err != nil {
		t.Fatalf("resolveSettings failed: %v", err)
	}
	if locale != "es" || timezone != "UTC" || seedFile != "fixtures/inbox.yaml" {
		t.Fatalf("unexpected settings: locale=%s timezone=%s seed=%s", locale, timezone, seedFile)
	}

	if err := cmd.Flags().Set("locale", "en-US"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := resolveSettings(v); err != nil {
		t.Fatalf("resolveSettings failed: %v", err)
	}
	if locale != "en-US" {
		t.Fatalf("expected explicit flag to win, got %s", locale)
	}
}

func TestResolveSettingsMissingConfig(t *testing.T) {
	resetFlags(t)
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")

	cmd := &cobra.Command{}
	cmd.Flags().String("seed", "", "")
	cmd.Flags().String("locale", "pt-BR", "")
	cmd.Flags().String("tz", "America/Sao_Paulo", "")

	v, err := newSettings(cmd.Flags())
	if err != nil {
		t.Fatalf("newSettings failed: %v", err)
	}
	if err := resolveSettings(v); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
