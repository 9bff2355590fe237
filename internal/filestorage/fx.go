package filestorage

import "go.uber.org/fx"

var Module = fx.Module("filestorage",
	fx.Provide(func() Copier { return NoOpCopier{} }),
)
