package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/IshaanNene/gemquality/internal/config"
	"github.com/IshaanNene/gemquality/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const actIntSource = `local skills, mod, flag, skill = ...

skills["Arc"] = {
	name = "Arc",
	qualityStats = {
		Default = {
			{ "base_cast_speed_+%", 0.5 },
		},
		Alternate1 = {
			{ "arc_unknown_stat", 0.1 },
		},
	},
	stats = {
		"spell_minimum_base_lightning_damage",
	},
}
`

const supStrSource = `skills["SupportAddedFireDamage"] = {
	name = "Added Fire Damage",
	qualityStats = {
		Default = {
			{ "physical_damage_%_to_add_as_fire", 0.5 },
			{ broken_key", 1 },
		},
	},
	stats = {
		"physical_damage_%_to_add_as_fire",
	},
}

skills["SupportNoQuality"] = {
	name = "No Quality",
	qualityStats = {
	},
	stats = {},
}
`

const translationsDoc = `[
  {"ids": ["base_cast_speed_+%"], "English": [
    {"condition": [{"min": 1}], "string": "{0}% increased Cast Speed", "index_handlers": [[]]},
    {"condition": [{"max": -1}], "string": "{0}% reduced Cast Speed", "index_handlers": [["negate"]]}
  ]},
  {"ids": ["physical_damage_%_to_add_as_fire"], "English": [
    {"condition": [{}], "string": "Gain {0}% of Physical Damage as Extra Fire Damage", "index_handlers": [[]]}
  ]}
]`

func newServer(t *testing.T, translations bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	if translations {
		mux.HandleFunc("/stat_translations.json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(translationsDoc))
		})
	}
	mux.HandleFunc("/act_int.lua", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(actIntSource))
	})
	mux.HandleFunc("/sup_str.lua", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(supStrSource))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Sources.Translations = baseURL + "/stat_translations.json"
	cfg.Sources.Categories = []config.CategoryConfig{
		{Name: "active_int", Title: "Intelligence Skills", URL: baseURL + "/act_int.lua"},
		{Name: "active_dex", Title: "Dexterity Skills", URL: baseURL + "/missing.lua"},
		{Name: "support_str", Title: "Strength Supports", URL: baseURL + "/sup_str.lua"},
	}
	return cfg
}

func buildEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	e, f, err := Build(cfg, testLogger)
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return e
}

func TestRun(t *testing.T) {
	srv := newServer(t, true)
	e := buildEngine(t, testConfig(srv.URL))

	collection, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	results := collection.Results()
	if len(results) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(results))
	}
	for i, want := range []string{"active_int", "active_dex", "support_str"} {
		if results[i].Category.Name != want {
			t.Errorf("category %d: expected %q, got %q", i, want, results[i].Category.Name)
		}
	}

	want := map[string][]types.Gem{
		"active_int": {
			{
				ID:   "Arc",
				Name: "Arc",
				Qualities: []types.QualityData{
					{Key: "base_cast_speed_+%", ValuePerQuality: 0.5, Translation: "{0}% increased Cast Speed", IndexHandles: []string{""}},
					{Key: "arc_unknown_stat", ValuePerQuality: 0.1},
				},
			},
		},
		"support_str": {
			{
				ID:   "SupportAddedFireDamage",
				Name: "Added Fire Damage",
				Qualities: []types.QualityData{
					{Key: "physical_damage_%_to_add_as_fire", ValuePerQuality: 0.5, Translation: "Gain {0}% of Physical Damage as Extra Fire Damage", IndexHandles: []string{""}},
				},
			},
			{
				ID:        "SupportNoQuality",
				Name:      "No Quality",
				Qualities: []types.QualityData{},
			},
		},
	}
	for name, gems := range want {
		result, ok := collection.Get(name)
		if !ok || !result.Fetched() {
			t.Fatalf("%s: expected a fetched result, got %+v", name, result)
		}
		if !reflect.DeepEqual(result.Gems, gems) {
			t.Errorf("%s gems mismatch\n got: %+v\nwant: %+v", name, result.Gems, gems)
		}
	}

	actDex, _ := collection.Get("active_dex")
	if actDex.Fetched() || len(actDex.Gems) != 0 {
		t.Errorf("missing document should fail its category: %+v", actDex)
	}

	snap := e.Metrics().Snapshot()
	if snap["documents_fetched"] != 3 || snap["documents_failed"] != 1 {
		t.Errorf("unexpected fetch counters: %v", snap)
	}
	if snap["gems_extracted"] != 3 || snap["malformed_pairs"] != 1 {
		t.Errorf("unexpected extraction counters: %v", snap)
	}
	if snap["qualities_resolved"] != 2 || snap["qualities_unresolved"] != 1 {
		t.Errorf("unexpected resolution counters: %v", snap)
	}
}

func TestRunCategoryFetchFailure(t *testing.T) {
	srv := newServer(t, true)
	e := buildEngine(t, testConfig(srv.URL))

	collection, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("fetch failures should not fail the run: %v", err)
	}

	dex, ok := collection.Get("active_dex")
	if !ok {
		t.Fatal("failed category should still be present")
	}
	if dex.Fetched() || len(dex.Gems) != 0 {
		t.Errorf("expected failed category without gems, got %+v", dex)
	}
	var fetchErr *types.FetchError
	if !errors.As(dex.Err, &fetchErr) || fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 FetchError, got %v", dex.Err)
	}
}

func TestRunWithoutTranslations(t *testing.T) {
	srv := newServer(t, false)
	e := buildEngine(t, testConfig(srv.URL))

	collection, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if collection.GemCount() != 3 {
		t.Errorf("gems should still be extracted, got %d", collection.GemCount())
	}
	for _, res := range collection.Results() {
		for _, g := range res.Gems {
			for _, q := range g.Qualities {
				if q.Resolved() || len(q.IndexHandles) != 0 {
					t.Errorf("expected unresolved quality without a translation index, got %+v", q)
				}
			}
		}
	}
}

func TestRunPipelineOptions(t *testing.T) {
	srv := newServer(t, true)
	cfg := testConfig(srv.URL)
	cfg.Pipeline.RequireQualities = true
	cfg.Pipeline.DropUnresolved = true
	cfg.Pipeline.Exclude = []string{"^SupportAddedFire"}
	e := buildEngine(t, cfg)

	collection, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	actInt, _ := collection.Get("active_int")
	if len(actInt.Gems[0].Qualities) != 1 {
		t.Errorf("unresolved qualities should be dropped, got %+v", actInt.Gems[0].Qualities)
	}
	supStr, _ := collection.Get("support_str")
	if len(supStr.Gems) != 0 {
		t.Errorf("excluded and empty gems should be dropped, got %+v", supStr.Gems)
	}
	if got := e.Metrics().Snapshot()["gems_dropped"]; got != 2 {
		t.Errorf("expected 2 dropped gems, got %d", got)
	}
}

func TestRunExport(t *testing.T) {
	srv := newServer(t, true)
	cfg := testConfig(srv.URL)
	cfg.Export.Type = "jsonl"
	cfg.Export.OutputPath = filepath.Join(t.TempDir(), "gems.jsonl")
	e := buildEngine(t, cfg)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := e.Metrics().Snapshot()["gems_stored"]; got != 3 {
		t.Errorf("expected 3 stored gems, got %d", got)
	}
	data, err := os.ReadFile(cfg.Export.OutputPath)
	if err != nil || len(data) == 0 {
		t.Errorf("expected export file, err=%v", err)
	}
}

type failingStorage struct{}

func (failingStorage) Store(string, []types.Gem) error {
	return &types.StorageError{Backend: "failing", Err: errors.New("disk full")}
}
func (failingStorage) Close() error { return nil }

func TestRunExportFailure(t *testing.T) {
	srv := newServer(t, true)
	e := buildEngine(t, testConfig(srv.URL))
	e.SetStorage(failingStorage{})

	collection, err := e.Run(context.Background())
	var storageErr *types.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if collection == nil || collection.Len() != 3 {
		t.Error("collection should be complete despite export failure")
	}
}

func TestRunCancelled(t *testing.T) {
	srv := newServer(t, true)
	e := buildEngine(t, testConfig(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	collection, err := e.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if collection.Len() != 0 {
		t.Errorf("no category should be processed, got %d", collection.Len())
	}
}

func TestRunRequiresFetcher(t *testing.T) {
	e := New(config.DefaultConfig(), testLogger)
	if _, err := e.Run(context.Background()); err == nil {
		t.Error("expected error without a fetcher")
	}
}

func TestLoadTranslations(t *testing.T) {
	srv := newServer(t, true)
	e := buildEngine(t, testConfig(srv.URL))

	idx, err := e.LoadTranslations(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", idx.Len())
	}
}
