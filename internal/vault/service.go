package vault

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roach88/vaultq/internal/criteria"
	"github.com/roach88/vaultq/internal/logger"
	"github.com/roach88/vaultq/internal/queryir"
	"github.com/roach88/vaultq/internal/querysql"
	"github.com/roach88/vaultq/internal/schema"
	"github.com/roach88/vaultq/internal/vaulterr"
)

// Store is the read side of the storage collaborator.
type Store interface {
	TypeLister
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Service answers vault queries.
//
// Safe for concurrent use: each call builds its own parser and join
// registry and shares only read-only registries.
type Service struct {
	store    Store
	schemas  *schema.Registry
	types    *schema.TypeRegistry
	compiler *querysql.SQLCompiler
	log      zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a Service over store.
func NewService(store Store, schemas *schema.Registry, types *schema.TypeRegistry, opts ...Option) *Service {
	s := &Service{
		store:    store,
		schemas:  schemas,
		types:    types,
		compiler: querysql.NewSQLCompiler(),
		log:      *logger.Named("vault"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TypeMapping returns the interface → concrete type mapping of the types
// currently stored.
func (s *Service) TypeMapping(ctx context.Context) (TypeMapping, error) {
	return DiscoverTypeMapping(ctx, s.store, s.types)
}

// Query runs criteria with the default page, no sort and any state type.
func (s *Service) Query(ctx context.Context, c criteria.QueryCriteria) (*Page, error) {
	return s.QueryBy(ctx, c, criteria.DefaultPage(), criteria.NoSort(), schema.AnyState)
}

// QueryBy returns the page of states matching c, ordered by sorting.
// contractType is the default state type unioned with any types the
// criteria request; schema.AnyState (or "") applies no default.
//
// Every error is a *vaulterr.Error. Page bounds are checked before anything
// runs; a page starting at or beyond the number of matching states fails.
func (s *Service) QueryBy(ctx context.Context, c criteria.QueryCriteria, paging criteria.PageSpecification, sorting criteria.Sort, contractType string) (*Page, error) {
	ctx = logger.WithQueryID(ctx, newQueryID())
	log := logger.C(ctx, s.log)
	log.Info().
		Str("contract_type", contractType).
		Int("page_number", paging.PageNumber).
		Int("page_size", paging.PageSize).
		Int("sort_columns", len(sorting.Columns)).
		Msg("vault query")

	page, err := s.queryBy(ctx, log, c, paging, sorting, contractType)
	if err != nil {
		log.Error().Err(err).Str("kind", string(vaulterr.KindOf(err))).Msg("vault query failed")
		return nil, err
	}
	log.Debug().
		Int("states", len(page.States)).
		Int("total", page.TotalStatesAvailable).
		Msg("vault query done")
	return page, nil
}

func (s *Service) queryBy(ctx context.Context, log zerolog.Logger, c criteria.QueryCriteria, paging criteria.PageSpecification, sorting criteria.Sort, contractType string) (*Page, error) {
	if err := paging.Validate(); err != nil {
		return nil, err
	}

	mapping, err := DiscoverTypeMapping(ctx, s.store, s.types)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("interfaces", len(mapping)).Msg("discovered type mapping")

	parser, err := newCriteriaParser(s.schemas, s.types, mapping, contractType, log)
	if err != nil {
		return nil, err
	}
	preds, err := parser.parse(c)
	if err != nil {
		return nil, err
	}
	orders, err := parser.parseSort(sorting)
	if err != nil {
		return nil, err
	}

	sel := queryir.Select{
		From:     parser.joins.root,
		Joins:    parser.joins.joins,
		Columns:  stateColumns(parser.vault),
		Key:      refKey(),
		Where:    queryir.Conjoin(preds...),
		Distinct: parser.joins.distinct,
		OrderBy:  orders,
	}

	total, err := s.count(ctx, sel)
	if err != nil {
		return nil, err
	}
	if paging.Offset() >= total {
		return nil, vaulterr.Boundsf(
			"requested more results than available [%d * %d >= %d]", paging.PageSize, paging.PageNumber, total)
	}

	page := &Page{
		States:               []StateAndRef{},
		StatesMetadata:       []StateMetadata{},
		Pageable:             paging,
		Sorting:              sorting,
		TotalStatesAvailable: total,
	}
	if paging.PageSize == 0 {
		return page, nil
	}

	sel.Offset = paging.Offset()
	sel.Limit = paging.PageSize
	if err := s.fetch(ctx, sel, page); err != nil {
		return nil, err
	}
	return page, nil
}

// count returns the number of distinct states matching sel.
func (s *Service) count(ctx context.Context, sel queryir.Select) (int, error) {
	query, params, err := s.compiler.Compile(queryir.Count{Select: sel})
	if err != nil {
		return 0, vaulterr.Wrap(err, vaulterr.KindMalformedCriteria, "compile count query")
	}
	var total int
	if err := s.store.QueryRowContext(ctx, query, params...).Scan(&total); err != nil {
		return 0, vaulterr.Wrap(err, vaulterr.KindStorage, "count matching states")
	}
	return total, nil
}

// fetch runs the page query and appends states and metadata to page.
func (s *Service) fetch(ctx context.Context, sel queryir.Select, page *Page) error {
	query, params, err := s.compiler.Compile(sel)
	if err != nil {
		return vaulterr.Wrap(err, vaulterr.KindMalformedCriteria, "compile page query")
	}

	rows, err := s.store.QueryContext(ctx, query, params...)
	if err != nil {
		return vaulterr.Wrap(err, vaulterr.KindStorage, "query states")
	}
	defer rows.Close()

	for rows.Next() {
		state, meta, err := scanState(rows)
		if err != nil {
			return vaulterr.Wrap(err, vaulterr.KindStorage, "scan state")
		}
		page.States = append(page.States, state)
		page.StatesMetadata = append(page.StatesMetadata, meta)
	}
	if err := rows.Err(); err != nil {
		return vaulterr.Wrap(err, vaulterr.KindStorage, "iterate states")
	}
	return nil
}

// stateColumns is the projection scanState reads, in order.
func stateColumns(vault schema.TableDescription) []queryir.Column {
	attrs := []string{
		"txId", "index", "contractStateClassName", "contractState",
		"notaryName", "notaryKey", "recordedTime", "consumedTime",
		"stateStatus", "lockId", "lockUpdateTime",
	}
	cols := make([]queryir.Column, len(attrs))
	for i, attr := range attrs {
		cols[i] = queryir.Col(aliasVault, column(vault, attr))
	}
	return cols
}

func scanState(rows *sql.Rows) (StateAndRef, StateMetadata, error) {
	var (
		ref         criteria.StateRef
		className   string
		payload     []byte
		notaryName  sql.NullString
		notaryKey   sql.NullString
		recorded    int64
		consumed    sql.NullInt64
		status      string
		lockID      sql.NullString
		lockUpdated sql.NullInt64
	)
	if err := rows.Scan(
		&ref.TxHash, &ref.Index, &className, &payload,
		&notaryName, &notaryKey, &recorded, &consumed,
		&status, &lockID, &lockUpdated,
	); err != nil {
		return StateAndRef{}, StateMetadata{}, err
	}

	st, err := criteria.ParseStateStatus(status)
	if err != nil {
		return StateAndRef{}, StateMetadata{}, err
	}

	meta := StateMetadata{
		Ref:                    ref,
		ContractStateClassName: className,
		RecordedTime:           time.Unix(0, recorded).UTC(),
		ConsumedTime:           nanosPtr(consumed),
		Status:                 st,
		NotaryName:             notaryName.String,
		NotaryKey:              notaryKey.String,
		LockID:                 lockID.String,
		LockUpdateTime:         nanosPtr(lockUpdated),
	}
	return StateAndRef{Ref: ref, ContractStateClassName: className, Payload: payload}, meta, nil
}

func nanosPtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(0, n.Int64).UTC()
	return &t
}

// newQueryID returns a time-ordered id for log correlation.
func newQueryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
