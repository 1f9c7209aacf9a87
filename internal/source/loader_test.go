package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scriptbook/internal/episode"
	"scriptbook/internal/extract"
	"scriptbook/internal/logging"
	"scriptbook/internal/services"
	"scriptbook/internal/source"
	"scriptbook/internal/testsupport"
)

type fakeExtractor struct {
	mu         sync.Mutex
	calls      map[string]int
	fail       map[string]error
	resolveErr error
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{calls: map[string]int{}, fail: map[string]error{}}
}

func (f *fakeExtractor) Resolve() (extract.Converter, error) {
	if f.resolveErr != nil {
		return extract.Converter{}, f.resolveErr
	}
	conv, _ := extract.LookupConverter("antiword")
	return conv, nil
}

func (f *fakeExtractor) ExtractWith(_ context.Context, conv extract.Converter, path string) (extract.Result, error) {
	name := filepath.Base(path)
	f.mu.Lock()
	f.calls[name]++
	err := f.fail[name]
	f.mu.Unlock()
	if err != nil {
		return extract.Result{}, err
	}
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return extract.Result{}, readErr
	}
	return extract.Result{Text: extract.Normalize(string(data)), Converter: conv.Name}, nil
}

func (f *fakeExtractor) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	saves   int
}

func (m *memoryCache) LookupExtraction(_ context.Context, hash, converter string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.entries[hash+"|"+converter]
	return text, ok, nil
}

func (m *memoryCache) SaveExtraction(_ context.Context, hash, converter, _ string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]string{}
	}
	m.entries[hash+"|"+converter] = text
	m.saves++
	return nil
}

func writeFixtures(t *testing.T, enDir, zhDir string) {
	t.Helper()
	testsupport.WriteText(t, filepath.Join(enDir, "101.txt"), "\ufeff\r\nThe Boy in the Iceberg  \r\nKatara: Water.\r\n\r\n")
	testsupport.WriteText(t, filepath.Join(enDir, "102.txt"), "The Avatar Returns\nAang: Hi.\n")
	testsupport.WriteText(t, filepath.Join(enDir, "notes.txt"), "not an episode")

	testsupport.WriteText(t, filepath.Join(zhDir, "avatar 101.doc"), "第一回 冰山里的男孩\n卡塔拉：水。\n")
	testsupport.WriteText(t, filepath.Join(zhDir, "avatar 103.doc"), "旧的第三回\n")
	testsupport.WriteText(t, filepath.Join(zhDir, "avatar 102-103.doc"), "目录\n第二回 阿凡达归来\n台词二\n\n第三回 南方气宗寺\n台词三\n")
	testsupport.WriteText(t, filepath.Join(zhDir, "avatar 104-106.doc"), "第四回 卡塔拉的师傅\n台词四\n")
	testsupport.WriteText(t, filepath.Join(zhDir, "readme.txt"), "ignored")
}

func newLoader(t *testing.T, ext source.TextExtractor, opts source.Options) *source.Loader {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	writeFixtures(t, cfg.Paths.EnglishDir, cfg.Paths.ChineseDir)
	loader, err := source.NewLoader(cfg, ext, logging.NewNop(), opts)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return loader
}

func TestLoadEnglishNormalizesAndSkipsBadNames(t *testing.T) {
	loader := newLoader(t, newFakeExtractor(), source.Options{Workers: 2})

	docs, issues, err := loader.LoadEnglish(context.Background())
	if err != nil {
		t.Fatalf("LoadEnglish: %v", err)
	}
	want := map[episode.Number]source.Document{
		101: {Number: 101, Text: "The Boy in the Iceberg\nKatara: Water.", Source: "101.txt"},
		102: {Number: 102, Text: "The Avatar Returns\nAang: Hi.", Source: "102.txt"},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Fatalf("english mismatch (-want +got):\n%s", diff)
	}
	if len(issues) != 1 || issues[0].Source != "notes.txt" {
		t.Fatalf("expected one issue for notes.txt, got %+v", issues)
	}
	if issues[0].Kind() != services.KindValidation {
		t.Fatalf("unexpected issue kind %q", issues[0].Kind())
	}
}

func TestLoadChineseSplitsRangesAndOverridesSingles(t *testing.T) {
	ext := newFakeExtractor()
	loader := newLoader(t, ext, source.Options{Workers: 3})

	docs, issues, err := loader.LoadChinese(context.Background())
	if err != nil {
		t.Fatalf("LoadChinese: %v", err)
	}
	want := map[episode.Number]source.Document{
		101: {Number: 101, Text: "第一回 冰山里的男孩\n卡塔拉：水。", Source: "avatar 101.doc"},
		102: {Number: 102, Text: "第二回 阿凡达归来\n台词二", Source: "avatar 102-103.doc"},
		103: {Number: 103, Text: "第三回 南方气宗寺\n台词三", Source: "avatar 102-103.doc"},
		104: {Number: 104, Text: "第四回 卡塔拉的师傅\n台词四", Source: "avatar 104-106.doc"},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Fatalf("chinese mismatch (-want +got):\n%s", diff)
	}
	if len(issues) != 1 || issues[0].EpisodeKey != "s01e04" {
		t.Fatalf("expected split mismatch issue for s01e04, got %+v", issues)
	}
	if ext.callCount("readme.txt") != 0 {
		t.Fatal("non-document files must not be extracted")
	}
}

func TestLoadChineseRecordsExtractionFailures(t *testing.T) {
	ext := newFakeExtractor()
	ext.fail["avatar 101.doc"] = services.Wrap(services.ErrExternalTool, "extract", "antiword", "", errors.New("exit status 1"))
	loader := newLoader(t, ext, source.Options{Workers: 1})

	docs, issues, err := loader.LoadChinese(context.Background())
	if err != nil {
		t.Fatalf("LoadChinese: %v", err)
	}
	if _, ok := docs[101]; ok {
		t.Fatal("failed document must be skipped")
	}
	if _, ok := docs[102]; !ok {
		t.Fatal("other documents must still load")
	}
	var kinds []string
	for _, issue := range issues {
		kinds = append(kinds, issue.Kind())
	}
	if diff := cmp.Diff([]string{services.KindExternalTool, services.KindValidation}, kinds); diff != "" {
		t.Fatalf("issue kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadChineseRequiresConverter(t *testing.T) {
	ext := newFakeExtractor()
	ext.resolveErr = services.Wrap(services.ErrConfiguration, "extract", "resolve converter", "", extract.ErrNoConverter)
	loader := newLoader(t, ext, source.Options{})

	_, _, err := loader.LoadChinese(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestExtractionCacheSkipsConverter(t *testing.T) {
	ext := newFakeExtractor()
	cache := &memoryCache{}
	loader := newLoader(t, ext, source.Options{Workers: 2, Cache: cache})
	ctx := context.Background()

	if _, _, err := loader.LoadChinese(ctx); err != nil {
		t.Fatalf("first LoadChinese: %v", err)
	}
	if cache.saves != 4 {
		t.Fatalf("expected 4 cached extractions, got %d", cache.saves)
	}
	if _, _, err := loader.LoadChinese(ctx); err != nil {
		t.Fatalf("second LoadChinese: %v", err)
	}
	if got := ext.callCount("avatar 101.doc"); got != 1 {
		t.Fatalf("expected cached document to be extracted once, got %d", got)
	}
}

func TestRefreshBypassesCache(t *testing.T) {
	ext := newFakeExtractor()
	cache := &memoryCache{}
	loader := newLoader(t, ext, source.Options{Cache: cache, Refresh: true})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, err := loader.LoadChinese(ctx); err != nil {
			t.Fatalf("LoadChinese: %v", err)
		}
	}
	if got := ext.callCount("avatar 101.doc"); got != 2 {
		t.Fatalf("expected refresh to re-extract, got %d calls", got)
	}
}

func TestLoadTreatsMissingDirectoriesAsEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	loader, err := source.NewLoader(cfg, newFakeExtractor(), logging.NewNop(), source.Options{})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	set, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(set.English) != 0 || len(set.Chinese) != 0 || len(set.Issues) != 0 {
		t.Fatalf("expected empty set, got %+v", set)
	}
}

func TestSetNumbersIsSortedUnion(t *testing.T) {
	loader := newLoader(t, newFakeExtractor(), source.Options{Workers: 2})
	set, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []episode.Number{101, 102, 103, 104}
	if diff := cmp.Diff(want, set.Numbers()); diff != "" {
		t.Fatalf("Numbers mismatch (-want +got):\n%s", diff)
	}
	if len(set.Issues) != 2 {
		t.Fatalf("expected english and chinese issues combined, got %d", len(set.Issues))
	}
}

func TestLoadWithStubbedAntiword(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedAntiword())
	testsupport.WriteText(t, filepath.Join(cfg.Paths.ChineseDir, "avatar 201.doc"), "\r\n第二十一回 \r\n台词\r\n")
	ext := extract.NewExtractor(cfg.Extract.Converters, 0, logging.NewNop())
	loader, err := source.NewLoader(cfg, ext, logging.NewNop(), source.Options{Workers: 1})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	docs, issues, err := loader.LoadChinese(context.Background())
	if err != nil {
		t.Fatalf("LoadChinese: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues %+v", issues)
	}
	if got := docs[201].Text; got != "第二十一回\n台词" {
		t.Fatalf("unexpected text %q", got)
	}
}
