package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/IshaanNene/gemquality/internal/quality"
	"github.com/IshaanNene/gemquality/internal/translation"
	"github.com/IshaanNene/gemquality/internal/types"
)

// DefaultGemPattern matches one gem record: the skills[...] accessor, the
// first quoted name after it, and everything between qualityStats and the
// next "stats" marker. Records may span lines and contain arbitrary fields.
const DefaultGemPattern = `(?ms)skills\[(.*?)\].*?name\W+?"(.*?)".*?qualityStats\W*\{(.*?)stats`

// pairPattern matches one "key", value pair anywhere in a quality block.
var pairPattern = regexp.MustCompile(`"([^"]*)"\s*,\s*([^\s,{}]+)`)

// GemExtractor finds gem records in scripting-language source dumps using
// regular expressions.
type GemExtractor struct {
	logger     *slog.Logger
	gemPattern *regexp.Regexp
}

// NewGemExtractor creates an extractor using DefaultGemPattern.
func NewGemExtractor(logger *slog.Logger) *GemExtractor {
	return &GemExtractor{
		logger:     logger.With("component", "gem_extractor"),
		gemPattern: regexp.MustCompile(DefaultGemPattern),
	}
}

// NewGemExtractorWithPattern creates an extractor with a custom record
// pattern. The pattern must have exactly three capture groups: id, name and
// quality block.
func NewGemExtractorWithPattern(pattern string, logger *slog.Logger) (*GemExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid gem pattern %q: %w", pattern, err)
	}
	if re.NumSubexp() != 3 {
		return nil, fmt.Errorf("gem pattern needs 3 capture groups, got %d", re.NumSubexp())
	}
	return &GemExtractor{
		logger:     logger.With("component", "gem_extractor"),
		gemPattern: re,
	}, nil
}

// Extract implements Extractor.
func (p *GemExtractor) Extract(source string) []RawGem {
	matches := p.gemPattern.FindAllStringSubmatch(source, -1)
	gems := make([]RawGem, 0, len(matches))
	for _, m := range matches {
		gems = append(gems, RawGem{
			ID:           cleanID(m[1]),
			Name:         m[2],
			QualityBlock: m[3],
		})
	}
	p.logger.Debug("gem records located", "count", len(gems))
	return gems
}

// ParseQualityBlock implements Extractor.
func (p *GemExtractor) ParseQualityBlock(block string, idx *translation.Index) ([]types.QualityData, error) {
	return p.parseQualityBlock("", block, idx)
}

// ExtractGems runs Extract and resolves each record's quality block. Every
// located record yields a Gem. Malformed pairs are left out of their gem and
// reported together in the returned error.
func (p *GemExtractor) ExtractGems(source string, idx *translation.Index) ([]types.Gem, error) {
	raws := p.Extract(source)
	gems := make([]types.Gem, 0, len(raws))
	var errs []error

	for _, raw := range raws {
		qualities, err := p.parseQualityBlock(raw.ID, raw.QualityBlock, idx)
		if err != nil {
			errs = append(errs, err)
		}
		gems = append(gems, types.Gem{
			ID:        raw.ID,
			Name:      raw.Name,
			Qualities: qualities,
		})
	}

	return gems, errors.Join(errs...)
}

func (p *GemExtractor) parseQualityBlock(gemID, block string, idx *translation.Index) ([]types.QualityData, error) {
	qualities := []types.QualityData{}
	var errs []error

	// last is the end of the previous pair; pos is where the next search starts.
	last, pos := 0, 0
	for pos < len(block) {
		loc := pairPattern.FindStringSubmatchIndex(block[pos:])
		if loc == nil {
			break
		}
		base := pos
		start, end := base+loc[0], base+loc[1]
		if !pairStart(block, start) {
			pos = start + 1
			continue
		}

		errs = append(errs, p.strayFragments(gemID, block[last:start])...)
		last, pos = end, end

		key := block[base+loc[2] : base+loc[3]]
		token := block[base+loc[4] : base+loc[5]]
		value, err := strconv.ParseFloat(token, 64)
		if err != nil {
			errs = append(errs, p.malformed(gemID, block[start:end], fmt.Errorf("%w: value %q: %w", types.ErrMalformedPair, token, err)))
			continue
		}

		qualities = append(qualities, quality.Resolve(key, value, idx))
	}
	errs = append(errs, p.strayFragments(gemID, block[last:])...)

	return qualities, errors.Join(errs...)
}

// pairStart reports whether a pair beginning at i opens the block or follows
// a '{' or ','.
func pairStart(block string, i int) bool {
	before := strings.TrimRight(block[:i], " \t\r\n")
	if before == "" {
		return true
	}
	c := before[len(before)-1]
	return c == '{' || c == ','
}

// strayFragments reports every brace-delimited fragment of text that still
// holds a quote after the well-formed pairs were taken out.
func (p *GemExtractor) strayFragments(gemID, text string) []error {
	var errs []error
	for _, frag := range strings.FieldsFunc(text, func(r rune) bool { return r == '{' || r == '}' }) {
		frag = strings.Trim(frag, " \t\r\n,")
		if strings.Contains(frag, `"`) {
			errs = append(errs, p.malformed(gemID, frag, types.ErrMalformedPair))
		}
	}
	return errs
}

func (p *GemExtractor) malformed(gemID, raw string, err error) error {
	p.logger.Warn("malformed quality pair", "gem", gemID, "raw", raw, "error", err)
	return &types.MalformedRecordError{GemID: gemID, Raw: raw, Err: err}
}

// cleanID strips the quoting of a skills["Id"] accessor.
func cleanID(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), `"'`)
}
