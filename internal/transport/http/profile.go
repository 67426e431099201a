package http

import (
	"net/http/pprof"

	"github.com/julienschmidt/httprouter"
)

func registerProfileHandlers(mux *httprouter.Router) {
	const prefix = "/pprof"

	mux.HandlerFunc("GET", prefix+"/", pprof.Index)
	mux.Handler("GET", prefix+"/allocs", pprof.Handler("allocs"))
	mux.Handler("GET", prefix+"/block", pprof.Handler("block"))
	mux.HandlerFunc("GET", prefix+"/cmdline", pprof.Cmdline)
	mux.Handler("GET", prefix+"/goroutine", pprof.Handler("goroutine"))
	mux.Handler("GET", prefix+"/heap", pprof.Handler("heap"))
	mux.Handler("GET", prefix+"/mutex", pprof.Handler("mutex"))
	mux.HandlerFunc("GET", prefix+"/profile", pprof.Profile)
	mux.HandlerFunc("GET", prefix+"/symbol", pprof.Symbol)
	mux.HandlerFunc("POST", prefix+"/symbol", pprof.Symbol)
	mux.Handler("GET", prefix+"/threadcreate", pprof.Handler("threadcreate"))
	mux.HandlerFunc("GET", prefix+"/trace", pprof.Trace)
}
