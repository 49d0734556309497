package bridge

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func defaultLogger() logrus.FieldLogger {
	return logrus.StandardLogger()
}

// recoverAt is deferred by every entry point. It turns a panic into an
// error stored in *err and runs onFail, if given. Contract violations keep
// their type; anything else becomes an ErrInternal carrying a stack trace.
func recoverAt(op string, log logrus.FieldLogger, err *error, onFail func()) {
	r := recover()
	if r == nil {
		return
	}

	switch v := r.(type) {
	case *ContractError:
		*err = v
	case error:
		*err = errors.Wrapf(ErrInternal, "%s: %v", op, v)
	default:
		*err = errors.Wrapf(ErrInternal, "%s: %v", op, r)
	}
	log.WithField("op", op).WithError(*err).Error("call failed")
	if onFail != nil {
		onFail()
	}
}
