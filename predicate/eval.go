package predicate

import (
	"github.com/mb0/glob"

	"github.com/lytics/qlpredicate/value"
)

// likeGlobber matches LIKE patterns converted by LikeToGlob. Values are not
// paths, so it has no separator and * crosses any character.
var likeGlobber = func() *glob.Globber {
	g, err := glob.New(glob.Config{Star: '*', Quest: '?', Range: '[', RangeEnd: ']', RangeNeg: '^'})
	if err != nil {
		panic(err)
	}
	return g
}()

func (matchAll) Eval(Record) bool { return true }

func (m *And) Eval(r Record) bool { return m.Left.Eval(r) && m.Right.Eval(r) }

func (m *Or) Eval(r Record) bool { return m.Left.Eval(r) || m.Right.Eval(r) }

func (m *Not) Eval(r Record) bool { return !m.Arg.Eval(r) }

func (m *Compare) Eval(r Record) bool {
	v, ok := m.Field.Value(r)
	if !ok {
		return false
	}
	c, ok := value.Compare(v, m.Value)
	if !ok {
		return false
	}
	return m.Op.test(c)
}

func (m *FieldCompare) Eval(r Record) bool {
	lv, ok := m.Left.Value(r)
	if !ok {
		return false
	}
	rv, ok := m.Right.Value(r)
	if !ok {
		return false
	}
	c, ok := value.Compare(lv, rv)
	if !ok {
		return false
	}
	return m.Op.test(c)
}

func (m *Between) Eval(r Record) bool {
	v, ok := m.Field.Value(r)
	if !ok {
		return false
	}
	lo, ok := value.Compare(v, m.Lower)
	if !ok || lo < 0 {
		return false
	}
	hi, ok := value.Compare(v, m.Upper)
	return ok && hi <= 0
}

func (m *In) Eval(r Record) bool {
	v, ok := m.Field.Value(r)
	if !ok {
		return false
	}
	cv, ok := value.Cast(m.Field.Type, v)
	if !ok {
		return false
	}
	// 18.5 casts to int 18 but is not a member of (18)
	if c, ok := value.Compare(v, cv); ok && c != 0 {
		return false
	}
	return m.set.Has(cv)
}

func (m *Match) Eval(r Record) bool {
	v, ok := m.Field.Value(r)
	if !ok {
		return false
	}
	s, ok := value.ValueToString(v)
	if !ok {
		return false
	}
	match, err := likeGlobber.Match(m.glob, s)
	if err != nil {
		return false
	}
	return match
}
