package vault

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/vaultq/internal/criteria"
	"github.com/roach88/vaultq/internal/queryir"
	"github.com/roach88/vaultq/internal/schema"
	"github.com/roach88/vaultq/internal/vaulterr"
)

// Foreign-key columns not exposed as entity attributes.
const (
	colOwnerParty  = "owner_party_id"
	colIssuerParty = "issuer_party_id"
	colParty       = "party_id"
)

// criteriaParser resolves one criteria tree into predicates, registering
// the joins it needs. A parser serves exactly one query.
type criteriaParser struct {
	schemas      *schema.Registry
	types        *schema.TypeRegistry
	mapping      TypeMapping
	contractType string
	joins        *joinRegistry
	log          zerolog.Logger

	vault    schema.TableDescription
	fungible schema.TableDescription
	linear   schema.TableDescription
	party    schema.TableDescription
}

func newCriteriaParser(schemas *schema.Registry, types *schema.TypeRegistry, mapping TypeMapping, contractType string, log zerolog.Logger) (*criteriaParser, error) {
	p := &criteriaParser{
		schemas:      schemas,
		types:        types,
		mapping:      mapping,
		contractType: contractType,
		log:          log,
	}
	for entity, td := range map[string]*schema.TableDescription{
		schema.EntityVaultStates:         &p.vault,
		schema.EntityVaultFungibleStates: &p.fungible,
		schema.EntityVaultLinearStates:   &p.linear,
		schema.EntityParty:               &p.party,
	} {
		found, ok := schemas.Lookup(entity)
		if !ok {
			return nil, vaulterr.Unresolvablef("vault schema entity %s is not registered", entity)
		}
		*td = found
	}
	p.joins = newJoinRegistry(p.vault.Table)
	return p, nil
}

// parse resolves criteria into a predicate set whose members are ANDed.
func (p *criteriaParser) parse(c criteria.QueryCriteria) ([]queryir.Predicate, error) {
	c, err := deref(c)
	if err != nil {
		return nil, err
	}

	switch c := c.(type) {
	case criteria.VaultCriteria:
		p.log.Trace().Stringer("criteria", c).Msg("parsing vault criteria")
		return p.parseVault(c)
	case criteria.FungibleCriteria:
		p.log.Trace().Msg("parsing fungible criteria")
		return p.parseFungible(c)
	case criteria.LinearCriteria:
		p.log.Trace().Msg("parsing linear criteria")
		return p.parseLinear(c)
	case criteria.AttributeCriteria:
		p.log.Trace().Msg("parsing attribute criteria")
		return p.parseAttribute(c.Expression)
	case criteria.NullableAttributeCriteria:
		p.log.Trace().Msg("parsing nullable attribute criteria")
		return p.parseAttribute(c.Expression)
	case criteria.AndCriteria:
		p.log.Trace().Msg("parsing AND composition")
		return p.parseComposition(criteria.OpAnd, c.Left, c.Right)
	case criteria.OrCriteria:
		p.log.Trace().Msg("parsing OR composition")
		return p.parseComposition(criteria.OpOr, c.Left, c.Right)
	default:
		return nil, vaulterr.Malformedf("unsupported query criteria type %T", c)
	}
}

// deref turns pointer variants into values. A nil criteria is malformed.
func deref(c criteria.QueryCriteria) (criteria.QueryCriteria, error) {
	var out criteria.QueryCriteria
	switch v := c.(type) {
	case *criteria.VaultCriteria:
		if v != nil {
			out = *v
		}
	case *criteria.FungibleCriteria:
		if v != nil {
			out = *v
		}
	case *criteria.LinearCriteria:
		if v != nil {
			out = *v
		}
	case *criteria.AttributeCriteria:
		if v != nil {
			out = *v
		}
	case *criteria.NullableAttributeCriteria:
		if v != nil {
			out = *v
		}
	case *criteria.AndCriteria:
		if v != nil {
			out = *v
		}
	case *criteria.OrCriteria:
		if v != nil {
			out = *v
		}
	default:
		out = c
	}
	if out == nil {
		return nil, vaulterr.Malformedf("query criteria is nil")
	}
	return out, nil
}

// parseComposition resolves both sides independently. Each side is
// conjuncted on its own before the combinator is applied, so
// (A1 AND A2) OR B never flattens into A1 OR A2 OR B.
func (p *criteriaParser) parseComposition(op criteria.Operator, left, right criteria.QueryCriteria) ([]queryir.Predicate, error) {
	leftPreds, err := p.parse(left)
	if err != nil {
		return nil, err
	}
	rightPreds, err := p.parse(right)
	if err != nil {
		return nil, err
	}

	l, r := queryir.Conjoin(leftPreds...), queryir.Conjoin(rightPreds...)
	if op == criteria.OpAnd {
		if both := queryir.Conjoin(l, r); both != nil {
			return []queryir.Predicate{both}, nil
		}
		return nil, nil
	}
	// A side without predicates matches every state.
	if l == nil || r == nil {
		return nil, nil
	}
	return []queryir.Predicate{queryir.Or{Predicates: []queryir.Predicate{l, r}}}, nil
}

func (p *criteriaParser) parseVault(c criteria.VaultCriteria) ([]queryir.Predicate, error) {
	var preds []queryir.Predicate

	status := p.vaultCol("stateStatus")
	if c.Status == criteria.StatusAll {
		preds = append(preds, queryir.In{Column: status, Values: []any{
			criteria.StatusUnconsumed.String(),
			criteria.StatusConsumed.String(),
		}})
	} else {
		preds = append(preds, queryir.Compare{Column: status, Op: queryir.OpEq, Value: c.Status.String()})
	}

	if typePred := p.contractTypePredicate(c.ContractStateTypes); typePred != nil {
		preds = append(preds, typePred)
	}

	if !c.IncludeSoftLocked {
		preds = append(preds, queryir.IsNull{Column: p.vaultCol("lockId")})
	}

	if c.Notaries != nil {
		preds = append(preds, queryir.In{Column: p.vaultCol("notaryName"), Values: identityValues(c.Notaries)})
	}

	if c.StateRefs != nil {
		tuples := make([][]any, len(c.StateRefs))
		for i, ref := range c.StateRefs {
			tuples[i] = []any{ref.TxHash, ref.Index}
		}
		preds = append(preds, queryir.TupleIn{Columns: refKey(), Tuples: tuples})
	}

	if c.TimeCondition != nil {
		pred, err := p.parseTimeCondition(*c.TimeCondition)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

// contractTypePredicate unions the requested types with the default type,
// drops the universal marker, expands interfaces to the stored concrete
// types and keeps concrete names as they are. Returns nil when nothing but
// the marker was requested. An interface with no stored implementation
// contributes no names, so it matches nothing.
func (p *criteriaParser) contractTypePredicate(requested []string) queryir.Predicate {
	names := append(append([]string(nil), requested...), p.contractType)

	filtered := false
	seen := make(map[string]bool)
	var concrete []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			concrete = append(concrete, name)
		}
	}
	for _, name := range names {
		if name == "" || name == schema.AnyState {
			continue
		}
		filtered = true
		if p.types.IsInterface(name) {
			for _, impl := range p.mapping.Expand(name) {
				add(impl)
			}
			continue
		}
		add(name)
	}
	if !filtered {
		return nil
	}

	sort.Strings(concrete)
	values := make([]any, len(concrete))
	for i, name := range concrete {
		values[i] = name
	}
	return queryir.In{Column: p.vaultCol("contractStateClassName"), Values: values}
}

// parseTimeCondition applies a range operator to the recorded or consumed
// timestamp.
func (p *criteriaParser) parseTimeCondition(cond criteria.Condition[criteria.TimeInstantType]) (queryir.Predicate, error) {
	col := p.vaultCol("recordedTime")
	if cond.Left() == criteria.TimeConsumed {
		col = p.vaultCol("consumedTime")
	}

	op := cond.Operator()
	values, ok := cond.Values()
	if !ok && cond.Right() != nil {
		values = criteria.Collection{cond.Right()}
	}
	for _, v := range values {
		if _, ok := v.(time.Time); !ok {
			return nil, vaulterr.Malformedf("time condition expects time values, got %T", v)
		}
	}

	switch op {
	case criteria.OpEqual, criteria.OpNotEqual,
		criteria.OpLessThan, criteria.OpLessThanOrEqual,
		criteria.OpGreaterThan, criteria.OpGreaterThanOrEqual:
		if len(values) == 0 {
			return nil, vaulterr.Malformedf("%s expects at least one argument value", op)
		}
		return queryir.Compare{Column: col, Op: compareOps[op], Value: values[0]}, nil
	case criteria.OpBetween:
		if len(values) != 2 {
			return nil, vaulterr.Malformedf("%s expects two argument values %v", op, values)
		}
		return queryir.Between{Column: col, Low: values[0], High: values[1]}, nil
	default:
		return nil, vaulterr.Malformedf("invalid query operator: %s", op)
	}
}

func (p *criteriaParser) parseFungible(c criteria.FungibleCriteria) ([]queryir.Predicate, error) {
	fungible := p.joins.joinEntity(schema.EntityVaultFungibleStates, aliasFungible, p.fungible.Table)
	preds := []queryir.Predicate{present(fungible)}

	if c.Owners != nil {
		p.joins.joinParty(aliasFungibleOwner, p.party.Table, queryir.Col(fungible, colOwnerParty))
		preds = append(preds, queryir.In{Column: p.partyName(aliasFungibleOwner), Values: identityValues(c.Owners)})
	}

	if c.Quantity != nil {
		col := queryir.Col(fungible, column(p.fungible, "quantity"))
		pred, err := resolveOperator(col, c.Quantity.Operator(), c.Quantity.Right())
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}

	if c.IssuerParties != nil {
		p.joins.joinParty(aliasFungibleIssuer, p.party.Table, queryir.Col(fungible, colIssuerParty))
		preds = append(preds, queryir.In{Column: p.partyName(aliasFungibleIssuer), Values: identityValues(c.IssuerParties)})
	}

	if c.IssuerRefs != nil {
		refs := make([]any, len(c.IssuerRefs))
		for i, ref := range c.IssuerRefs {
			refs[i] = ref
		}
		preds = append(preds, queryir.In{Column: queryir.Col(fungible, column(p.fungible, "issuerRef")), Values: refs})
	}

	if c.Participants != nil {
		party := p.joins.joinParticipants(aliasFungibleParts, tableFungibleParticipants, p.party.Table)
		preds = append(preds, queryir.In{Column: p.partyName(party), Values: identityValues(c.Participants)})
	}
	return preds, nil
}

func (p *criteriaParser) parseLinear(c criteria.LinearCriteria) ([]queryir.Predicate, error) {
	linear := p.joins.joinEntity(schema.EntityVaultLinearStates, aliasLinear, p.linear.Table)
	preds := []queryir.Predicate{present(linear)}

	if c.LinearIDs != nil {
		// External ids only constrain entries that carry one; the uuid
		// predicate always applies and both are ANDed.
		var external, ids []any
		for _, id := range c.LinearIDs {
			if id.ExternalID != "" {
				external = append(external, id.ExternalID)
			}
			ids = append(ids, id.ID.String())
		}
		if len(external) > 0 {
			preds = append(preds, queryir.In{Column: queryir.Col(linear, column(p.linear, "externalId")), Values: external})
		}
		preds = append(preds, queryir.In{Column: queryir.Col(linear, column(p.linear, "uuid")), Values: ids})
	}

	if c.DealRefs != nil {
		refs := make([]any, len(c.DealRefs))
		for i, ref := range c.DealRefs {
			refs[i] = ref
		}
		preds = append(preds, queryir.In{Column: queryir.Col(linear, column(p.linear, "dealReference")), Values: refs})
	}

	if c.Participants != nil {
		party := p.joins.joinParticipants(aliasLinearParts, tableLinearParticipants, p.party.Table)
		preds = append(preds, queryir.In{Column: p.partyName(party), Values: identityValues(c.Participants)})
	}
	return preds, nil
}

// parseAttribute resolves an attribute expression, traversing combinations
// exactly as they were built.
func (p *criteriaParser) parseAttribute(expr criteria.Expression) ([]queryir.Predicate, error) {
	pred, err := p.parseExpression(expr)
	if err != nil {
		return nil, err
	}
	return []queryir.Predicate{pred}, nil
}

func (p *criteriaParser) parseExpression(expr criteria.Expression) (queryir.Predicate, error) {
	switch e := expr.(type) {
	case criteria.Combine:
		return p.parseCombine(e)
	case *criteria.Combine:
		if e == nil {
			break
		}
		return p.parseCombine(*e)
	case criteria.Condition[criteria.Attribute]:
		return p.parseAttributeCondition(e)
	case *criteria.Condition[criteria.Attribute]:
		if e == nil {
			break
		}
		return p.parseAttributeCondition(*e)
	case nil:
	default:
		return nil, vaulterr.Malformedf("attribute criteria expects conditions over entity attributes, got %T", expr)
	}
	return nil, vaulterr.Malformedf("attribute criteria has no expression")
}

func (p *criteriaParser) parseCombine(c criteria.Combine) (queryir.Predicate, error) {
	left, err := p.parseExpression(c.Left())
	if err != nil {
		return nil, err
	}
	right, err := p.parseExpression(c.Right())
	if err != nil {
		return nil, err
	}
	if c.Operator() == criteria.OpOr {
		return queryir.Or{Predicates: []queryir.Predicate{left, right}}, nil
	}
	return queryir.And{Predicates: []queryir.Predicate{left, right}}, nil
}

// parseAttributeCondition joins the attribute's entity on the state
// reference and requires the fact row to exist alongside the condition.
func (p *criteriaParser) parseAttributeCondition(cond criteria.Condition[criteria.Attribute]) (queryir.Predicate, error) {
	attr := cond.Left()
	td, ok := p.schemas.Lookup(attr.Entity)
	if !ok {
		return nil, vaulterr.Unresolvablef(
			"please register the entity '%s' in the vault's mapped schemas (config \"schemas\") "+
				"and make sure its table is created by the store migrations", attr.Entity)
	}
	if attr.Entity == schema.EntityParty {
		return nil, vaulterr.Unresolvablef("entity %s is not keyed by state reference and cannot be filtered directly", attr.Entity)
	}
	col, ok := td.Column(attr.Name)
	if !ok {
		return nil, vaulterr.Unresolvablef("entity %s has no attribute %q (known: %v)", attr.Entity, attr.Name, td.AttributeNames())
	}

	alias := p.entityJoin(attr.Entity, td)
	pred, err := resolveOperator(queryir.Col(alias, col.Name), cond.Operator(), cond.Right())
	if err != nil {
		return nil, err
	}
	if alias == aliasVault {
		return pred, nil
	}
	return queryir.And{Predicates: []queryir.Predicate{present(alias), pred}}, nil
}

// entityJoin joins a registered entity and returns its alias. Custom
// entities use their table name as alias.
func (p *criteriaParser) entityJoin(entity string, td schema.TableDescription) string {
	switch entity {
	case schema.EntityVaultStates:
		return aliasVault
	case schema.EntityVaultFungibleStates:
		return p.joins.joinEntity(entity, aliasFungible, td.Table)
	case schema.EntityVaultLinearStates:
		return p.joins.joinEntity(entity, aliasLinear, td.Table)
	default:
		return p.joins.joinEntity(entity, td.Table, td.Table)
	}
}

func (p *criteriaParser) vaultCol(attr string) queryir.Column {
	return queryir.Col(aliasVault, column(p.vault, attr))
}

func (p *criteriaParser) partyName(alias string) queryir.Column {
	return queryir.Col(alias, column(p.party, "name"))
}

// column returns the physical column for a built-in attribute. An unknown
// attribute yields an empty name, which query validation rejects.
func column(td schema.TableDescription, attr string) string {
	c, _ := td.Column(attr)
	return c.Name
}

func identityValues(parties []criteria.Party) []any {
	ids := criteria.Identities(parties)
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
