package idlc

import "github.com/sirupsen/logrus"

// log is the package-level logger every component writes diagnostics
// through. Defaults to logrus's standard logger so a host application
// gets sane output with zero setup; SetLogger lets it plug in its own
// formatter/hooks.
var log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the package-level logger. Passing nil restores
// logrus's standard logger.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		log = logrus.StandardLogger()
		return
	}
	log = l
}
