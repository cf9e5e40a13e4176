package types

import "fmt"

// Substitution maps type variables to the concrete types bound to them.
type Substitution map[Type]Type

// Substitute replaces every bound type variable in t with its binding.
// Unbound variables are left in place.
func (in *Interner) Substitute(t Type, subst Substitution) Type {
	switch in.Kind(t) {
	case KindVar:
		if replacement, ok := subst[t]; ok {
			return replacement
		}
		return t
	case KindPointer:
		elem := in.Elem(t)
		newElem := in.Substitute(elem, subst)
		if newElem == elem {
			return t
		}
		return in.Pointer(newElem)
	default:
		return t
	}
}

// Unify matches a pattern against a concrete type, extending subst with any
// variable bindings it needs. A variable already bound in subst must match
// the identical type again. Only the pattern side may contain variables.
func (in *Interner) Unify(pattern, concrete Type, subst Substitution) error {
	if pattern == concrete {
		return nil
	}

	switch in.Kind(pattern) {
	case KindVar:
		if bound, ok := subst[pattern]; ok {
			if bound != concrete {
				return fmt.Errorf("%s is bound to %s, cannot also be %s",
					in.String(pattern), in.String(bound), in.String(concrete))
			}
			return nil
		}
		subst[pattern] = concrete
		return nil
	case KindPointer:
		if in.Kind(concrete) != KindPointer {
			return fmt.Errorf("cannot unify %s with %s", in.String(pattern), in.String(concrete))
		}
		return in.Unify(in.Elem(pattern), in.Elem(concrete), subst)
	}
	return fmt.Errorf("cannot unify %s with %s", in.String(pattern), in.String(concrete))
}
