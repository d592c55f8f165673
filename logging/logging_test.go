package logging

import (
	"testing"

	"go.viam.com/test"
)

func TestObservedTestLogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Debugw("consensus improved", "iteration", 3)
	logger.Infof("done in %d iterations", 7)

	test.That(t, observed.Len(), test.ShouldEqual, 2)
	test.That(t, observed.All()[0].Message, test.ShouldEqual, "consensus improved")
	test.That(t, observed.All()[1].Message, test.ShouldEqual, "done in 7 iterations")
}

func TestSublogger(t *testing.T) {
	logger := NewTestLogger(t)
	sub := logger.Sublogger("refine")
	test.That(t, sub, test.ShouldNotBeNil)
	test.That(t, sub.AsZap(), test.ShouldNotBeNil)
	sub.Debug("nested logger works")
}
