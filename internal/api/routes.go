package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.GET("guards").
			To(handler.ListGuards).
			Doc("List registered guards").
			Metadata(restfulspec.KeyOpenAPITags, []string{"guards"}).
			Writes(GuardListResponse{}).
			Returns(200, "OK", GuardListResponse{}))

	ws.
		Route(ws.GET("guards/{name}").
			To(handler.DescribeGuard).
			Doc("Describe a guard and its validators").
			Metadata(restfulspec.KeyOpenAPITags, []string{"guards"}).
			Param(ws.PathParameter("name", "Guard name").DataType("string")).
			Writes(models.GuardDescription{}).
			Returns(200, "OK", models.GuardDescription{}).
			Returns(404, "Guard Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("guards/{name}/validate").
			To(handler.Validate).
			Doc("Validate text with a guard").
			Metadata(restfulspec.KeyOpenAPITags, []string{"validate"}).
			Param(ws.PathParameter("name", "Guard name (pii-input-guard, jailbreak-guard, toxicity-guard, pii-output-guard)").DataType("string")).
			Reads(models.ValidateRequest{}).
			Writes(models.ValidateResponse{}).
			Returns(200, "OK", models.ValidateResponse{}).
			Returns(400, "Empty Text", middleware.ErrorResponse{}).
			Returns(404, "Guard Not Found", middleware.ErrorResponse{}).
			Returns(422, "Rejected By Guard", models.ValidateResponse{}).
			Returns(502, "Detection Backend Failed", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	container.Add(ws)
}
