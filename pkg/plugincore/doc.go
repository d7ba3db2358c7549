// Package plugincore is an in-process command runtime. A Host keeps a
// registry of named commands, loads plugins that contribute more of them,
// and invokes commands behind a boundary that turns panics into statuses.
//
// Each Host is parameterized by its command signature and identified by a
// namespace; several hosts can live in one process without sharing state.
//
//	h := plugincore.New[plugincore.Command]("ged")
//	h.SetLogger(func(level plugincore.Level, msg string) { ... })
//	h.SetPolicy(plugincore.RootPolicy("/usr/lib/ged/plugins"))
//	_ = h.Init(plugincore.CommandDesc[plugincore.Command]{Name: "help", Impl: help})
//	n, err := h.Load(ctx, "/usr/lib/ged/plugins/draw.so")
//	var ret int32
//	status := plugincore.Run(h, "draw", &ret)
//
// Loaded plugins are never unloaded: their code stays mapped for the life of
// the host because registered commands may point into it.
package plugincore
