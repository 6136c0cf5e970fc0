package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/infrastructure/tiers"
	"github.com/doeshing/ergo/internal/pkg/clock"
	"github.com/doeshing/ergo/internal/pkg/logger"
)

type recordingLogger struct {
	logger.Nop
	warnings []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{}) {
	l.warnings = append(l.warnings, msg)
}

func newTestStore(t *testing.T, dirs ...string) (*Store, *clock.Fixed) {
	t.Helper()
	if len(dirs) == 0 {
		dirs = []string{t.TempDir()}
	}
	clk := &clock.Fixed{T: time.Unix(1_700_000_000, 0)}
	s, err := Open(&tiers.StaticResolver{Dirs: dirs}, clk, logger.Nop{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, clk
}

func readDoc(t *testing.T, dir string) map[string]domain.CacheEntry {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, domain.StoreDocumentName))
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	doc := map[string]domain.CacheEntry{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func netRecord(name string) domain.CommandRecord {
	return domain.CommandRecord{
		Name:        name,
		Description: "fetches things",
		Permissions: []domain.PermissionRequest{{Permission: "--allow-net", Reason: "download"}},
	}
}

func TestStore_StoreThenGet(t *testing.T) {
	s, _ := newTestStore(t)
	stored, err := s.Store("fetch", netRecord("fetch"), "console.log(1)")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if stored.ScriptFile != "fetch.ts" {
		t.Fatalf("ScriptFile = %q", stored.ScriptFile)
	}

	got, ok, err := s.Get("fetch")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(stored, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	script, err := s.GetScript(got)
	if err != nil {
		t.Fatalf("GetScript: %v", err)
	}
	if script != "console.log(1)" {
		t.Fatalf("script = %q", script)
	}
}

func TestStore_FreshEntryFields(t *testing.T) {
	s, _ := newTestStore(t)
	s.Store("fetch", netRecord("fetch"), "x")

	entry := readDoc(t, s.Dir())["fetch"]
	if entry.UsageCount != 0 || entry.CreatedAt != 1_700_000_000 || entry.LastUsed != 1_700_000_000 {
		t.Fatalf("unexpected bookkeeping: %+v", entry)
	}
	if entry.PermissionDecision != nil {
		t.Fatalf("fresh entry carries a decision")
	}
}

func TestStore_NeedsConsentTable(t *testing.T) {
	tests := []struct {
		name     string
		decision *domain.Consent
		want     bool
	}{
		{name: "no decision", want: true},
		{name: "accept once", decision: consentPtr(domain.ConsentAcceptOnce), want: true},
		{name: "accept forever", decision: consentPtr(domain.ConsentAcceptForever), want: false},
		{name: "denied", decision: consentPtr(domain.ConsentDenied), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			s.Store("x", netRecord("x"), "x")
			if tt.decision != nil {
				err := s.SetPermissionDecision("x", domain.PermissionDecision{Consent: *tt.decision})
				if err != nil {
					t.Fatalf("SetPermissionDecision: %v", err)
				}
			}
			if got := s.NeedsConsent("x"); got != tt.want {
				t.Fatalf("NeedsConsent = %v, want %v", got, tt.want)
			}
		})
	}
}

func consentPtr(c domain.Consent) *domain.Consent { return &c }

func TestStore_EmptyPermissionsNeedNoConsent(t *testing.T) {
	s, _ := newTestStore(t)
	s.Store("hello", domain.CommandRecord{Name: "hello"}, "x")
	if s.NeedsConsent("hello") {
		t.Fatalf("empty permission command should not need consent")
	}
	if !s.NeedsConsent("unknown") {
		t.Fatalf("unknown command must need consent")
	}
}

func TestStore_AcceptOnceSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	s, _ := newTestStore(t, dir)
	s.Store("x", netRecord("x"), "x")
	s.SetPermissionDecision("x", domain.PermissionDecision{Consent: domain.ConsentAcceptOnce, DecidedAt: 5})

	reloaded, _ := newTestStore(t, dir)
	if !reloaded.NeedsConsent("x") {
		t.Fatalf("AcceptOnce must re-prompt")
	}
	d, ok := reloaded.GetPermissionDecision("x")
	if !ok || d.Consent != domain.ConsentAcceptOnce || d.DecidedAt != 5 {
		t.Fatalf("decision not persisted: %+v ok=%v", d, ok)
	}
}

func TestStore_UsageCountPersisted(t *testing.T) {
	dir := t.TempDir()
	s, clk := newTestStore(t, dir)
	s.Store("x", netRecord("x"), "x")

	clk.Advance(time.Minute)
	if err := s.UpdateUsage("x"); err != nil {
		t.Fatalf("UpdateUsage: %v", err)
	}
	if got := readDoc(t, dir)["x"].UsageCount; got != 1 {
		t.Fatalf("usage after first run = %d", got)
	}

	// a second process sees the persisted count
	second, clk2 := newTestStore(t, dir)
	clk2.T = clk.T.Add(time.Minute)
	second.UpdateUsage("x")
	entry := readDoc(t, dir)["x"]
	if entry.UsageCount != 2 {
		t.Fatalf("usage after second run = %d", entry.UsageCount)
	}
	if entry.LastUsed != uint64(clk2.T.Unix()) {
		t.Fatalf("last_used = %d", entry.LastUsed)
	}
}

func TestStore_FallbackTierIsReadOnly(t *testing.T) {
	near, far := t.TempDir(), t.TempDir()
	farStore, _ := newTestStore(t, far)
	farStore.Store("shared", domain.CommandRecord{Name: "shared"}, "far script")

	s, _ := newTestStore(t, near, far)
	rec, ok, err := s.Get("shared")
	if err != nil || !ok {
		t.Fatalf("fallback Get: ok=%v err=%v", ok, err)
	}
	script, err := s.GetScript(rec)
	if err != nil || script != "far script" {
		t.Fatalf("fallback script = %q err=%v", script, err)
	}

	if err := s.UpdateUsage("shared"); err != nil {
		t.Fatalf("UpdateUsage: %v", err)
	}
	if got := readDoc(t, far)["shared"].UsageCount; got != 0 {
		t.Fatalf("fallback usage mutated to %d", got)
	}
	if _, err := os.Stat(filepath.Join(near, domain.StoreDocumentName)); !os.IsNotExist(err) {
		t.Fatalf("write tier document should not exist yet: %v", err)
	}
}

func TestStore_NearestTierShadows(t *testing.T) {
	near, far := t.TempDir(), t.TempDir()
	farStore, _ := newTestStore(t, far)
	farStore.Store("tool", domain.CommandRecord{Name: "tool", Description: "far"}, "far")
	nearStore, _ := newTestStore(t, near)
	nearStore.Store("tool", domain.CommandRecord{Name: "tool", Description: "near"}, "near")

	s, _ := newTestStore(t, near, far)
	rec, _, _ := s.Get("tool")
	if rec.Description != "near" {
		t.Fatalf("expected near tier to win, got %q", rec.Description)
	}
	script, _ := s.GetScript(rec)
	if script != "near" {
		t.Fatalf("script from wrong tier: %q", script)
	}
}

func TestStore_ScriptNotMixedAcrossTiers(t *testing.T) {
	near, far := t.TempDir(), t.TempDir()
	// a stray file in the near tier that its document does not reference
	os.WriteFile(filepath.Join(near, "tool.ts"), []byte("stray"), 0o644)
	farStore, _ := newTestStore(t, far)
	farStore.Store("tool", domain.CommandRecord{Name: "tool"}, "owned")

	s, _ := newTestStore(t, near, far)
	rec, _, _ := s.Get("tool")
	script, err := s.GetScript(rec)
	if err != nil || script != "owned" {
		t.Fatalf("script = %q err=%v", script, err)
	}
}

func TestStore_MissingScriptInOwningTierIsFinal(t *testing.T) {
	near, far := t.TempDir(), t.TempDir()
	farStore, _ := newTestStore(t, far)
	farStore.Store("foo", domain.CommandRecord{Name: "foo"}, "FAR")
	nearStore, _ := newTestStore(t, near, far)
	stored, _ := nearStore.Store("foo", domain.CommandRecord{Name: "foo"}, "NEAR")
	os.Remove(filepath.Join(near, stored.ScriptFile))

	s, _ := newTestStore(t, near, far)
	rec, ok, _ := s.Get("foo")
	if !ok {
		t.Fatalf("near entry not found")
	}
	script, err := s.GetScript(rec)
	if !errors.Is(err, domain.ErrScriptNotFound) {
		t.Fatalf("script = %q err=%v, want ErrScriptNotFound", script, err)
	}
}

func TestStore_GetScriptMissing(t *testing.T) {
	s, _ := newTestStore(t)
	stored, _ := s.Store("gone", domain.CommandRecord{Name: "gone"}, "x")
	os.Remove(filepath.Join(s.Dir(), stored.ScriptFile))

	_, err := s.GetScript(stored)
	if !errors.Is(err, domain.ErrScriptNotFound) {
		t.Fatalf("expected ErrScriptNotFound, got %v", err)
	}
}

func TestStore_Remove(t *testing.T) {
	s, _ := newTestStore(t)
	stored, _ := s.Store("x", netRecord("x"), "x")

	removed, err := s.Remove("x")
	if err != nil || !removed {
		t.Fatalf("Remove: removed=%v err=%v", removed, err)
	}
	if _, ok, _ := s.Get("x"); ok {
		t.Fatalf("entry still present")
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), stored.ScriptFile)); !os.IsNotExist(err) {
		t.Fatalf("script file still on disk: %v", err)
	}

	removed, err = s.Remove("x")
	if err != nil || removed {
		t.Fatalf("second Remove: removed=%v err=%v", removed, err)
	}
}

func TestStore_Clear(t *testing.T) {
	s, _ := newTestStore(t)
	a, _ := s.Store("a", domain.CommandRecord{Name: "a"}, "a")
	b, _ := s.Store("b", netRecord("b"), "b")

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(s.List()) != 0 {
		t.Fatalf("store not empty after Clear")
	}
	if len(readDoc(t, s.Dir())) != 0 {
		t.Fatalf("persisted document not empty")
	}
	for _, rec := range []domain.CommandRecord{a, b} {
		if _, err := os.Stat(filepath.Join(s.Dir(), rec.ScriptFile)); !os.IsNotExist(err) {
			t.Fatalf("%s still on disk", rec.ScriptFile)
		}
	}
}

func TestStore_StoreOverwriteResetsDecision(t *testing.T) {
	s, _ := newTestStore(t)
	s.Store("x", netRecord("x"), "v1")
	s.SetPermissionDecision("x", domain.PermissionDecision{Consent: domain.ConsentAcceptForever})
	s.UpdateUsage("x")

	s.Store("x", netRecord("x"), "v2")
	if _, ok := s.GetPermissionDecision("x"); ok {
		t.Fatalf("decision survived overwrite")
	}
	if !s.NeedsConsent("x") {
		t.Fatalf("overwritten command must need consent again")
	}
	if got := readDoc(t, s.Dir())["x"].UsageCount; got != 0 {
		t.Fatalf("usage survived overwrite: %d", got)
	}
}

func TestStore_CorruptDocumentStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, domain.StoreDocumentName), []byte("{not json"), 0o644)

	log := &recordingLogger{}
	s, err := Open(&tiers.StaticResolver{Dirs: []string{dir}}, &clock.Fixed{}, log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(s.List()) != 0 {
		t.Fatalf("corrupt document should load empty")
	}
	if len(log.warnings) != 1 {
		t.Fatalf("expected one warning, got %v", log.warnings)
	}
}

func TestStore_SeparatorNamesKeepOwnScripts(t *testing.T) {
	s, _ := newTestStore(t)
	slash, _ := s.Store("a/b", domain.CommandRecord{Name: "a/b"}, "slash")
	under, _ := s.Store("a_b", domain.CommandRecord{Name: "a_b"}, "under")
	if slash.ScriptFile == under.ScriptFile {
		t.Fatalf("both commands use %q", slash.ScriptFile)
	}

	if _, err := s.Remove("a_b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	script, err := s.GetScript(slash)
	if err != nil || script != "slash" {
		t.Fatalf("script = %q err=%v", script, err)
	}
}

func TestStore_NullDocumentStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, domain.StoreDocumentName), []byte("null"), 0o644)

	s, _ := newTestStore(t, dir)
	if len(s.List()) != 0 {
		t.Fatalf("null document should load empty")
	}
	if _, err := s.Store("foo", domain.CommandRecord{Name: "foo"}, "x"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if got := readDoc(t, dir); len(got) != 1 {
		t.Fatalf("document after Store = %v", got)
	}
}

func TestStore_ListAndStats(t *testing.T) {
	s, _ := newTestStore(t)
	s.Store("zeta", domain.CommandRecord{Name: "zeta"}, "z")
	s.Store("alpha", netRecord("alpha"), "a")
	s.SetPermissionDecision("alpha", domain.PermissionDecision{Consent: domain.ConsentAcceptForever})
	s.UpdateUsage("alpha")
	s.UpdateUsage("alpha")
	s.UpdateUsage("zeta")

	list := s.List()
	if len(list) != 2 || list[0].Name != "alpha" || list[1].Name != "zeta" {
		t.Fatalf("unexpected listing order: %+v", list)
	}
	if list[0].Decision == nil || list[0].Decision.Consent != domain.ConsentAcceptForever {
		t.Fatalf("listing lost decision")
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalCommands != 2 || stats.TotalUsage != 3 || stats.AcceptedForever != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.SizeBytes == 0 || stats.Directory != s.Dir() {
		t.Fatalf("size or directory missing: %+v", stats)
	}
}
