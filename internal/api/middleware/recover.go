package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog/log"
)

func RecoverPanic(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("path", req.Request.URL.Path).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic")
			HandleError(resp, fmt.Errorf("internal server error"), http.StatusInternalServerError)
		}
	}()

	chain.ProcessFilter(req, resp)
}
