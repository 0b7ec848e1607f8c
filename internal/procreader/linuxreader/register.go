package linuxreader

import (
	"serpent/internal/pluginreg"
	"serpent/internal/procreader"
)

func init() {
	pluginreg.RegisterReader("linux", func() procreader.Reader { return New() })
}
