package schemas

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mmrzaf/mockgen/internal/domain"
	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("definition not found")

// DefaultLength applies when a definition gives no usable length.
const DefaultLength = 10

type Repository interface {
	List() ([]*domain.DomainSchema, error)
	Get(domainName string) (*domain.DomainSchema, error)
	LoadAll() (map[string]*domain.DomainSchema, error)
}

// FileRepository reads one definition file per domain from baseDir. The
// file name without extension is the domain name.
type FileRepository struct {
	baseDir string
}

func NewFileRepository(baseDir string) *FileRepository {
	return &FileRepository{baseDir: baseDir}
}

func (r *FileRepository) BaseDir() string {
	return r.baseDir
}

var definitionExts = map[string]bool{".yaml": true, ".yml": true, ".json": true, ".csv": true}

func (r *FileRepository) files() (map[string]string, error) {
	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	files := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !definitionExts[ext] {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if prev, dup := files[name]; dup {
			return nil, fmt.Errorf("domain %q is defined twice: %s and %s", name, filepath.Base(prev), entry.Name())
		}
		files[name] = filepath.Join(r.baseDir, entry.Name())
	}
	return files, nil
}

// List loads every domain, sorted by name. A file that fails to parse fails
// the listing.
func (r *FileRepository) List() ([]*domain.DomainSchema, error) {
	files, err := r.files()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*domain.DomainSchema, 0, len(names))
	for _, name := range names {
		ds, err := LoadDefinition(files[name])
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

func (r *FileRepository) LoadAll() (map[string]*domain.DomainSchema, error) {
	list, err := r.List()
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.DomainSchema, len(list))
	for _, ds := range list {
		out[ds.Domain] = ds
	}
	return out, nil
}

func (r *FileRepository) Get(domainName string) (*domain.DomainSchema, error) {
	files, err := r.files()
	if err != nil {
		return nil, err
	}
	path, ok := files[domainName]
	if !ok {
		return nil, fmt.Errorf("%w: domain %s", ErrNotFound, domainName)
	}
	return LoadDefinition(path)
}

// GetByPath loads a definition file that must live inside baseDir.
func (r *FileRepository) GetByPath(path string) (*domain.DomainSchema, error) {
	resolved, err := r.within(path)
	if err != nil {
		return nil, err
	}
	return LoadDefinition(resolved)
}

func (r *FileRepository) within(path string) (string, error) {
	base, err := filepath.Abs(r.baseDir)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside %s", path, r.baseDir)
	}
	return path, nil
}

// LoadDefinition reads one domain file in any supported format.
func LoadDefinition(path string) (*domain.DomainSchema, error) {
	ext := strings.ToLower(filepath.Ext(path))
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var (
		ds  *domain.DomainSchema
		err error
	)
	switch ext {
	case ".csv":
		f, ferr := os.Open(path)
		if ferr != nil {
			return nil, ferr
		}
		defer f.Close()
		ds, err = ParseCSV(name, f)
	case ".json", ".yaml", ".yml":
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, rerr
		}
		ds = &domain.DomainSchema{}
		if ext == ".json" {
			err = json.Unmarshal(data, ds)
		} else {
			err = yaml.Unmarshal(data, ds)
		}
	default:
		return nil, fmt.Errorf("unsupported definition format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if ds.Domain == "" {
		ds.Domain = name
	} else if ds.Domain != name {
		return nil, fmt.Errorf("load %s: declares domain %q, file name says %q", path, ds.Domain, name)
	}
	for i := range ds.Tables {
		for j := range ds.Tables[i].Columns {
			normalizeColumn(&ds.Tables[i].Columns[j])
		}
	}
	return ds, nil
}

// NormalizeType maps spreadsheet type names onto the two generator types.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	switch t {
	case "text":
		return "varchar"
	case "number":
		return "int"
	default:
		return t
	}
}

func normalizeColumn(c *domain.ColumnSpec) {
	c.Name = strings.TrimSpace(c.Name)
	c.Type = NormalizeType(c.Type)
	c.Rule = strings.TrimSpace(c.Rule)
}

var csvHeader = []string{"TABLE_NAME", "COLUMN_NAME", "TYPE", "LENGTH", "FAKE_RULE"}

// ParseCSV reads the tabular layout: one row per column, tables in first
// appearance order. Missing or non-numeric LENGTH becomes DefaultLength.
func ParseCSV(domainName string, r io.Reader) (*domain.DomainSchema, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, want := range csvHeader[:3] {
		if _, ok := idx[want]; !ok {
			return nil, fmt.Errorf("missing column %s in header", want)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	ds := &domain.DomainSchema{Domain: domainName}
	tables := make(map[string]int)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		table := field(rec, "TABLE_NAME")
		column := field(rec, "COLUMN_NAME")
		if table == "" && column == "" {
			continue
		}
		if table == "" || column == "" {
			return nil, fmt.Errorf("line %d: TABLE_NAME and COLUMN_NAME are required", line)
		}

		ti, ok := tables[table]
		if !ok {
			ti = len(ds.Tables)
			tables[table] = ti
			ds.Tables = append(ds.Tables, domain.TableSchema{Name: table})
		}
		rule := field(rec, "FAKE_RULE")
		if strings.EqualFold(rule, "nan") {
			rule = ""
		}
		ds.Tables[ti].Columns = append(ds.Tables[ti].Columns, domain.ColumnSpec{
			Name:   column,
			Type:   field(rec, "TYPE"),
			Length: parseLength(field(rec, "LENGTH")),
			Rule:   rule,
		})
	}
	return ds, nil
}

func parseLength(s string) int {
	if s == "" {
		return DefaultLength
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultLength
	}
	return int(f)
}
