package vault

import (
	"github.com/roach88/vaultq/internal/criteria"
	"github.com/roach88/vaultq/internal/queryir"
	"github.com/roach88/vaultq/internal/vaulterr"
)

// parseSort maps sort columns to ordering terms on entities the criteria
// already joined. Columns name entity attributes; a physical column name of
// the entity's table is accepted too.
func (p *criteriaParser) parseSort(s criteria.Sort) ([]queryir.Order, error) {
	p.log.Trace().Int("columns", len(s.Columns)).Msg("parsing sort")

	orders := make([]queryir.Order, 0, len(s.Columns))
	for _, sc := range s.Columns {
		alias, ok := p.joins.entityAlias(sc.Entity)
		if !ok {
			return nil, vaulterr.Unsupportedf("missing root entity: %s", sc.Entity)
		}
		if sc.NullHandling != criteria.NullsNone {
			return nil, vaulterr.Unsupportedf(
				"unsupported NULL ordering mode: %s; only %s is supported", sc.NullHandling, criteria.NullsNone)
		}

		name, ok := p.sortColumn(sc.Entity, sc.Column)
		if !ok {
			return nil, vaulterr.Unresolvablef("entity %s has no sortable attribute %q", sc.Entity, sc.Column)
		}
		orders = append(orders, queryir.Order{
			Column: queryir.Col(alias, name),
			Desc:   sc.Direction == criteria.Desc,
		})
	}
	return orders, nil
}

func (p *criteriaParser) sortColumn(entity, name string) (string, bool) {
	td, ok := p.schemas.Lookup(entity)
	if !ok {
		return "", false
	}
	if c, ok := td.Column(name); ok {
		return c.Name, true
	}
	for _, c := range td.Attributes {
		if c.Name == name {
			return c.Name, true
		}
	}
	return "", false
}
