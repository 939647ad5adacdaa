package campus

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/adfharrison1/go-campus/pkg/domain"
	"github.com/adfharrison1/go-campus/pkg/table"
)

var (
	ErrForbidden   = errors.New("dataset not available for this role")
	ErrUnknownRole = errors.New("unknown role")
)

// Dataset names shipped with the portal fixtures.
const (
	DatasetCourses   = "courses"
	DatasetFees      = "fees"
	DatasetLibrary   = "library"
	DatasetExams     = "exams"
	DatasetTimetable = "timetable"
)

// RoleDatasets lists what each role may open. A nil list means everything.
var RoleDatasets = map[string][]string{
	domain.RoleStudent: {DatasetCourses, DatasetFees, DatasetLibrary, DatasetExams, DatasetTimetable},
	domain.RoleFaculty: {DatasetCourses, DatasetTimetable, DatasetExams},
	domain.RoleAdmin:   nil,
}

// DefaultPageSize is used by modules that do not ask for another.
const DefaultPageSize = 5

// Portal hands out feature modules for a session identity.
type Portal struct {
	source   domain.DatasetSource
	pageSize int
	logger   *zap.Logger
}

type PortalOption func(*Portal)

// WithPageSize sets the page size of opened modules
func WithPageSize(n int) PortalOption {
	return func(p *Portal) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithLogger sets the portal's logger
func WithLogger(logger *zap.Logger) PortalOption {
	return func(p *Portal) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPortal creates a portal over source.
func NewPortal(source domain.DatasetSource, options ...PortalOption) *Portal {
	p := &Portal{
		source:   source,
		pageSize: DefaultPageSize,
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// PageSize returns the page size of modules opened by the portal.
func (p *Portal) PageSize() int {
	return p.pageSize
}

func allowedFor(id domain.Identity) ([]string, bool, error) {
	for _, role := range domain.AllRoles {
		if id.HasRole(role) {
			names := RoleDatasets[role]
			return names, names == nil, nil
		}
	}
	return nil, false, errors.Wrapf(ErrUnknownRole, "%q", id.Role)
}

// Datasets lists the datasets id may open, in source order.
func (p *Portal) Datasets(id domain.Identity) ([]string, error) {
	allowed, all, err := allowedFor(id)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0)
	for _, name := range p.source.Names() {
		if all || contains(allowed, name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// CanView reports whether id may open the named dataset.
func (p *Portal) CanView(id domain.Identity, name string) error {
	allowed, all, err := allowedFor(id)
	if err != nil {
		return err
	}
	if !all && !contains(allowed, name) {
		return errors.Wrapf(ErrForbidden, "%s cannot open %q", strings.TrimSuffix(id.Role, ":"), name)
	}
	return nil
}

// Collection loads a dataset after checking id may see it.
func (p *Portal) Collection(id domain.Identity, name string) (*domain.Collection, error) {
	if err := p.CanView(id, name); err != nil {
		return nil, err
	}
	c, err := p.source.Dataset(name)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("dataset opened",
		zap.String("user_id", id.UserID),
		zap.String("role", id.Role),
		zap.String("dataset", name))
	return c, nil
}

// Open mounts a generic module over the named dataset.
func (p *Portal) Open(id domain.Identity, name string, pageSize int) (*Module[domain.Record], error) {
	c, err := p.Collection(id, name)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = p.pageSize
	}
	m := NewModule(c.Name, entityName(c), c.Rows(), pageSize, table.WithColumns(c.Columns...))
	m.Columns = c.Columns
	return m, nil
}

// OpenAs mounts a module over the named dataset decoded into typed rows.
func OpenAs[R domain.Row](p *Portal, id domain.Identity, name string) (*Module[R], error) {
	c, err := p.Collection(id, name)
	if err != nil {
		return nil, err
	}
	rows, err := Decode[R](c.Records)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %q", name)
	}
	columns := c.Columns
	if len(rows) > 0 {
		columns = rows[0].Fields()
	}
	m := NewModule(c.Name, entityName(c), rows, p.pageSize, table.WithColumns(columns...))
	m.Columns = columns
	return m, nil
}

// StaticSession always resolves to the same identity.
type StaticSession domain.Identity

func (s StaticSession) Current(ctx context.Context) (domain.Identity, error) {
	return domain.Identity(s), nil
}

func entityName(c *domain.Collection) string {
	if c.Title != "" {
		return c.Title
	}
	if c.Name == "" {
		return "Export"
	}
	return cases.Title(language.Und, cases.NoLower).String(c.Name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
