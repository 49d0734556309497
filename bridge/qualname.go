package bridge

import "github.com/pkg/errors"

// QualifiedName is an element name handed to the host by CreateElement.
// The host may keep it after the call and gives it back with
// DestroyQualifiedName.
type QualifiedName struct {
	Namespace string
	Local     string

	destroyed bool
}

// Destroyed reports whether the name was given back.
func (q *QualifiedName) Destroyed() bool {
	return q.destroyed
}

// DestroyQualifiedName releases a name received by CreateElement.
// Destroying a name twice returns ErrNameDestroyed.
func DestroyQualifiedName(name *QualifiedName) (err error) {
	defer recoverAt("destroy_qualified_name", defaultLogger(), &err, nil)

	if name == nil {
		return errors.Wrap(ErrInvalidArgument, "nil qualified name")
	}
	if name.destroyed {
		return ErrNameDestroyed
	}
	name.destroyed = true
	name.Namespace, name.Local = "", ""
	return nil
}
