package segment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOutlineExtractor struct {
	mock.Mock
}

func (m *mockOutlineExtractor) ExtractOutline(ctx context.Context, frontMatter string, totalPages int) ([]OutlineEntry, error) {
	args := m.Called(ctx, frontMatter, totalPages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OutlineEntry), args.Error(1)
}

func TestSegmenter_UsesExtractedOutline(t *testing.T) {
	extractor := new(mockOutlineExtractor)
	s := New(extractor)

	extractor.On("ExtractOutline", mock.Anything, "CONTENTS Brakes 210", 500).Return([]OutlineEntry{
		{Name: "Brakes", FirstPage: 210, PageCount: 15, HeadingLevel: 1},
		{Name: "Parking Brake", FirstPage: 220, PageCount: 3, HeadingLevel: 2},
	}, nil)

	sections := s.Segment(context.Background(), "CONTENTS Brakes 210", 500)

	require.Len(t, sections, 2)
	assert.Equal(t, "Brakes", sections[0].Name)
	assert.Equal(t, 2, sections[1].HeadingLevel)
}

func TestSegmenter_DropsInvalidEntries(t *testing.T) {
	extractor := new(mockOutlineExtractor)
	s := New(extractor)

	extractor.On("ExtractOutline", mock.Anything, mock.Anything, 100).Return([]OutlineEntry{
		{Name: "Valid", FirstPage: 1, PageCount: 50, HeadingLevel: 1},
		{Name: "", FirstPage: 51, PageCount: 10, HeadingLevel: 1},
		{Name: "Past the end", FirstPage: 90, PageCount: 20, HeadingLevel: 1},
		{Name: "Zero pages", FirstPage: 60, PageCount: 0, HeadingLevel: 1},
	}, nil)

	sections := s.Segment(context.Background(), "toc", 100)

	require.Len(t, sections, 1)
	assert.Equal(t, "Valid", sections[0].Name)
}

func TestSegmenter_ClampsHeadingLevel(t *testing.T) {
	extractor := new(mockOutlineExtractor)
	s := New(extractor)

	extractor.On("ExtractOutline", mock.Anything, mock.Anything, 10).Return([]OutlineEntry{
		{Name: "Too deep", FirstPage: 1, PageCount: 5, HeadingLevel: 12},
		{Name: "Too shallow", FirstPage: 6, PageCount: 5, HeadingLevel: 0},
	}, nil)

	sections := s.Segment(context.Background(), "toc", 10)

	require.Len(t, sections, 2)
	assert.Equal(t, domain.MaxHeadingLevel, sections[0].HeadingLevel)
	assert.Equal(t, domain.MinHeadingLevel, sections[1].HeadingLevel)
}

func TestSegmenter_ExtractionFailureFallsBack(t *testing.T) {
	extractor := new(mockOutlineExtractor)
	s := New(extractor)

	extractor.On("ExtractOutline", mock.Anything, mock.Anything, 140).Return(nil, errors.New("capability down"))

	sections := s.Segment(context.Background(), "toc", 140)

	require.Len(t, sections, len(defaultChapters))
	assert.Equal(t, "General Information", sections[0].Name)
}

func TestSegmenter_NilExtractorFallsBack(t *testing.T) {
	s := New(nil)

	sections := s.Segment(context.Background(), "anything", 140)

	require.Len(t, sections, 7)

	// contiguous cover of the full page range
	page := 1
	total := 0
	for _, sec := range sections {
		assert.Equal(t, page, sec.FirstPage)
		page += sec.PageCount
		total += sec.PageCount
	}
	assert.Equal(t, 140, total)
}

func TestSegmenter_TruncatesFrontMatterBeforeExtraction(t *testing.T) {
	extractor := new(mockOutlineExtractor)
	s := New(extractor)

	long := strings.Repeat("x", DefaultFrontMatterBudget+1000)
	extractor.On("ExtractOutline", mock.Anything, mock.MatchedBy(func(fm string) bool {
		return len(fm) == DefaultFrontMatterBudget
	}), 10).Return(nil, errors.New("ignored"))

	s.Segment(context.Background(), long, 10)

	extractor.AssertExpectations(t)
}

func TestFallbackSections_ShortManuals(t *testing.T) {
	sections := FallbackSections(3)
	require.Len(t, sections, 3)
	for i, sec := range sections {
		assert.Equal(t, i+1, sec.FirstPage)
		assert.Equal(t, 1, sec.PageCount)
	}

	one := FallbackSections(1)
	require.Len(t, one, 1)
	assert.Equal(t, 1, one[0].PageCount)

	assert.Nil(t, FallbackSections(0))
}

func TestSegmenter_ZeroPages(t *testing.T) {
	assert.Nil(t, New(nil).Segment(context.Background(), "", 0))
}
