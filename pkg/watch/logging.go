package watch

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("interedit/watch", "selection watch endpoint")

var log = logging.DefaultContext().Logger(REALM)
