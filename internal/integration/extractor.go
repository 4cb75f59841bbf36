package integration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abelzeko/reservoir-scraper/internal/entities"
)

// DefaultBoilerplateOffset is the number of leading values on the status page
// that belong to navigation and headers rather than to the measurement block.
// It is tied to the current page layout and nothing on the page marks it.
const DefaultBoilerplateOffset = 5

// pageTimeLayout is the DD.MM.YYYY HH:MM format used on the status page
const pageTimeLayout = "02.01.2006 15:04"

var (
	decimalPattern  = regexp.MustCompile(`[0-9]+,[0-9]+`)
	dateTimePattern = regexp.MustCompile(`([0-9]{2}\.[0-9]{2}\.[0-9]{4})\s+([0-9]{2}:[0-9]{2})`)
)

// Text under these parents is never rendered as page content
var skippedParents = map[string]struct{}{
	DocumentRootTag: {},
	"html":          {},
	"head":          {},
	"meta":          {},
	"script":        {},
	"noscript":      {},
	"style":         {},
	"header":        {},
	"input":         {},
}

// Extractor turns the visible text of the status page into an ordered value sequence
type Extractor struct {
	location *time.Location
	offset   int
	logger   *zap.Logger
}

// NewExtractor creates an extractor reading page timestamps in loc.
// A nil loc means local time.
func NewExtractor(loc *time.Location, logger *zap.Logger) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		location: loc,
		offset:   DefaultBoilerplateOffset,
		logger:   logger,
	}
}

// Extract scans the text nodes for decimal-comma numbers and DD.MM.YYYY HH:MM
// timestamps, drops the boilerplate values and returns the rest in page order.
// Fewer values than the boilerplate offset yield an empty sequence.
func (e *Extractor) Extract(nodes []TextNode) ([]entities.Value, error) {
	var values []entities.Value
	skipped := 0

	for _, node := range nodes {
		if _, ok := skippedParents[node.ParentTag]; ok {
			skipped++
			continue
		}

		value, ok, err := e.matchValue(node.Text)
		if err != nil {
			return nil, err
		}
		if ok {
			values = append(values, value)
		}
	}

	if len(values) <= e.offset {
		e.logger.Warn("not enough values on page",
			zap.Int("matched", len(values)),
			zap.Int("boilerplate_offset", e.offset))
		return []entities.Value{}, nil
	}

	result := values[e.offset:]
	e.logger.Debug("extracted values",
		zap.Int("nodes", len(nodes)),
		zap.Int("skipped_nodes", skipped),
		zap.Int("matched", len(values)),
		zap.Int("returned", len(result)))
	return result, nil
}

// matchValue tries the number pattern first; the date pattern is only
// consulted when the text holds no decimal number.
func (e *Extractor) matchValue(text string) (entities.Value, bool, error) {
	if m := decimalPattern.FindString(text); m != "" {
		f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
		if err != nil {
			return entities.Value{}, false, fmt.Errorf("%w: invalid decimal %q: %w", entities.ErrParse, m, err)
		}
		return entities.FloatValue(f), true, nil
	}

	if m := dateTimePattern.FindStringSubmatch(text); m != nil {
		stamp := m[1] + " " + m[2]
		ts, err := time.ParseInLocation(pageTimeLayout, stamp, e.location)
		if err != nil {
			return entities.Value{}, false, fmt.Errorf("%w: invalid timestamp %q: %w", entities.ErrParse, stamp, err)
		}
		return entities.EpochValue(ts.Unix()), true, nil
	}

	return entities.Value{}, false, nil
}
