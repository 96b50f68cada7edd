package parser

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/gemquality/internal/translation"
	"github.com/IshaanNene/gemquality/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testSource = `-- This file is automatically generated, do not edit!
local skills, mod, flag, skill = ...

skills["Arc"] = {
	name = "Arc",
	color = 3,
	description = "An arc of lightning stretches from the caster to a targeted enemy.",
	castTime = 0.7,
	qualityStats = {
		Default = {
			{ "base_cast_speed_+%", 0.5 },
		},
		Alternate1 = {
			{ "arc_damage_+%_final_for_each_remaining_chain", 0.1 },
		},
	},
	stats = {
		"spell_minimum_base_lightning_damage",
		"spell_maximum_base_lightning_damage",
	},
}

-- unrelated helper tables between records
local helper = { 1, 2, 3 }

skills["SupportAddedFireDamage"] = {
	name = "Added Fire Damage",
	support = true,
	qualityStats = {
		Default = {
			{ "physical_damage_%_to_add_as_fire", 0.5 },
		},
	},
	stats = {
		"physical_damage_%_to_add_as_fire",
	},
}
`

const testTranslations = `[
  {"ids": ["base_cast_speed_+%"], "English": [
    {"condition": [{"min": 1}], "string": "{0}% increased Cast Speed", "index_handlers": [[]]},
    {"condition": [{"max": -1}], "string": "{0}% reduced Cast Speed", "index_handlers": [["negate"]]}
  ]},
  {"ids": ["physical_damage_%_to_add_as_fire"], "English": [
    {"condition": [{}], "string": "Gain {0}% of Physical Damage as Extra Fire Damage", "index_handlers": [[]]}
  ]}
]`

func testIndex(t testing.TB) *translation.Index {
	t.Helper()
	idx, err := translation.Parse([]byte(testTranslations))
	if err != nil {
		t.Fatalf("parse translations: %v", err)
	}
	return idx
}

func TestExtractTwoRecords(t *testing.T) {
	p := NewGemExtractor(testLogger)

	raws := p.Extract(testSource)
	if len(raws) != 2 {
		t.Fatalf("expected 2 records, got %d", len(raws))
	}

	if raws[0].ID != "Arc" || raws[0].Name != "Arc" {
		t.Errorf("unexpected first record: %+v", raws[0])
	}
	if raws[1].ID != "SupportAddedFireDamage" || raws[1].Name != "Added Fire Damage" {
		t.Errorf("unexpected second record: %+v", raws[1])
	}

	if !strings.Contains(raws[0].QualityBlock, "arc_damage_+%_final_for_each_remaining_chain") {
		t.Errorf("first block missing its own stats: %q", raws[0].QualityBlock)
	}
	if strings.Contains(raws[0].QualityBlock, "physical_damage") {
		t.Error("first block leaked into the second record")
	}
	if strings.Contains(raws[0].QualityBlock, "spell_minimum_base_lightning_damage") {
		t.Error("quality block should stop before the stats field")
	}
	if strings.Contains(raws[1].QualityBlock, "base_cast_speed") {
		t.Error("second block contains stats of the first record")
	}
}

func TestExtractNoMatches(t *testing.T) {
	p := NewGemExtractor(testLogger)

	raws := p.Extract("local skills = {}\nreturn skills\n")
	if raws == nil || len(raws) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", raws)
	}

	gems, err := p.ExtractGems("", nil)
	if err != nil {
		t.Errorf("empty source should not error: %v", err)
	}
	if len(gems) != 0 {
		t.Errorf("expected no gems, got %d", len(gems))
	}
}

func TestExtractGems(t *testing.T) {
	p := NewGemExtractor(testLogger)

	gems, err := p.ExtractGems(testSource, testIndex(t))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(gems) != 2 {
		t.Fatalf("expected 2 gems, got %d", len(gems))
	}

	arc := gems[0]
	if len(arc.Qualities) != 2 {
		t.Fatalf("expected 2 Arc qualities, got %d", len(arc.Qualities))
	}
	if arc.Qualities[0].Key != "base_cast_speed_+%" || arc.Qualities[0].ValuePerQuality != 0.5 {
		t.Errorf("unexpected first quality: %+v", arc.Qualities[0])
	}
	// The max-only variant comes later and has no min, so the min 1 variant stays.
	if arc.Qualities[0].Translation != "{0}% increased Cast Speed" {
		t.Errorf("unexpected translation: %q", arc.Qualities[0].Translation)
	}
	if arc.Qualities[1].Resolved() {
		t.Errorf("untranslated stat should stay unresolved: %+v", arc.Qualities[1])
	}

	fire := gems[1].Qualities[0]
	if fire.Translation != "Gain {0}% of Physical Damage as Extra Fire Damage" {
		t.Errorf("unexpected translation: %q", fire.Translation)
	}
}

func TestParseQualityBlockMalformedKey(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{"bare", `"key_a", 5.0 key_b", 2.5`},
		{"braced", `{ "key_a", 5.0 key_b", 2.5 }`},
		{"separate groups", `{ "key_a", 5.0 }, { key_b", 2.5 }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewGemExtractor(testLogger)
			qualities, err := p.ParseQualityBlock(tt.block, nil)

			if len(qualities) != 1 {
				t.Fatalf("expected the valid pair to survive, got %d qualities", len(qualities))
			}
			if qualities[0].Key != "key_a" || qualities[0].ValuePerQuality != 5.0 {
				t.Errorf("unexpected quality: %+v", qualities[0])
			}

			if !errors.Is(err, types.ErrMalformedPair) {
				t.Fatalf("expected ErrMalformedPair, got %v", err)
			}
			malformed := MalformedRecords(err)
			if len(malformed) != 1 {
				t.Fatalf("expected 1 malformed record, got %d (%v)", len(malformed), err)
			}
			if malformed[0].Raw != `key_b", 2.5` {
				t.Errorf("malformed record should carry the raw pair, got %q", malformed[0].Raw)
			}
		})
	}
}

func TestParseQualityBlockIgnoresUnquotedGroups(t *testing.T) {
	p := NewGemExtractor(testLogger)

	qualities, err := p.ParseQualityBlock(`Default = { { 1, 2 }, { "key_a", 0.5 }, {}, },`, nil)
	if err != nil {
		t.Fatalf("groups without a quote are not pairs: %v", err)
	}
	if len(qualities) != 1 || qualities[0].Key != "key_a" || qualities[0].ValuePerQuality != 0.5 {
		t.Errorf("expected only key_a, got %+v", qualities)
	}
}

func TestParseQualityBlockSeveralPairsInOneGroup(t *testing.T) {
	p := NewGemExtractor(testLogger)

	qualities, err := p.ParseQualityBlock(`{ "key_a", 1, "key_b", 2.5 }`, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qualities) != 2 || qualities[0].Key != "key_a" || qualities[1].Key != "key_b" || qualities[1].ValuePerQuality != 2.5 {
		t.Errorf("unexpected qualities: %+v", qualities)
	}
}

func TestParseQualityBlockBadValue(t *testing.T) {
	p := NewGemExtractor(testLogger)

	qualities, err := p.ParseQualityBlock(`{ "key_a", SOME_CONSTANT }, { "key_b", -2 }, { }`, nil)
	if len(qualities) != 1 || qualities[0].Key != "key_b" || qualities[0].ValuePerQuality != -2 {
		t.Errorf("expected only key_b, got %+v", qualities)
	}

	var mre *types.MalformedRecordError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
	if !errors.Is(err, types.ErrMalformedPair) {
		t.Error("value errors should also match ErrMalformedPair")
	}
}

func TestExtractGemsKeepsMalformedGem(t *testing.T) {
	p := NewGemExtractor(testLogger)

	source := `skills["Good"] = {
	name = "Good",
	qualityStats = { Default = { { "key_a", 1 } } },
	stats = {},
}
skills["Broken"] = {
	name = "Broken",
	qualityStats = { Default = { { "key_a", 5.0 }, { key_b", 2.5 } } },
	stats = {},
}`

	gems, err := p.ExtractGems(source, nil)
	if len(gems) != 2 {
		t.Fatalf("expected both gems, got %d", len(gems))
	}
	if len(gems[1].Qualities) != 1 || gems[1].Qualities[0].Key != "key_a" {
		t.Errorf("broken gem should keep its valid pair, got %+v", gems[1].Qualities)
	}

	malformed := MalformedRecords(err)
	if len(malformed) != 1 {
		t.Fatalf("expected 1 malformed record, got %d (%v)", len(malformed), err)
	}
	if malformed[0].GemID != "Broken" {
		t.Errorf("malformed record should name its gem, got %q", malformed[0].GemID)
	}
}

func TestQualitiesNotShared(t *testing.T) {
	p := NewGemExtractor(testLogger)
	source := testSource + strings.Replace(testSource, `"Arc"`, `"ArcCopy"`, 1)

	gems, err := p.ExtractGems(source, testIndex(t))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(gems) != 4 {
		t.Fatalf("expected 4 gems, got %d", len(gems))
	}

	gems[0].Qualities[0].IndexHandles[0] = "mutated"
	if gems[2].Qualities[0].IndexHandles[0] == "mutated" {
		t.Error("gems must not share quality data")
	}
}

func TestCustomPattern(t *testing.T) {
	if _, err := NewGemExtractorWithPattern(`(a)(b)`, testLogger); err == nil {
		t.Error("expected error for two capture groups")
	}
	if _, err := NewGemExtractorWithPattern(`(`, testLogger); err == nil {
		t.Error("expected error for invalid pattern")
	}

	p, err := NewGemExtractorWithPattern(`gem (\w+) "([^"]*)" \[([^\]]*)\]`, testLogger)
	if err != nil {
		t.Fatalf("custom pattern: %v", err)
	}
	raws := p.Extract(`gem a1 "Alpha" [{ "k", 1 }]`)
	if len(raws) != 1 || raws[0].ID != "a1" || raws[0].Name != "Alpha" {
		t.Errorf("unexpected records: %+v", raws)
	}
}

func TestMalformedRecordsNil(t *testing.T) {
	if got := MalformedRecords(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if got := MalformedRecords(errors.New("other")); len(got) != 0 {
		t.Errorf("expected none, got %v", got)
	}
}

// --- Benchmarks ---

func BenchmarkExtractGems(b *testing.B) {
	p := NewGemExtractor(testLogger)
	idx := testIndex(b)
	source := strings.Repeat(testSource, 20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ExtractGems(source, idx)
	}
}
