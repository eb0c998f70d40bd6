package genapidoc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/komponen/marketplace/internal/svc/appsvc"
	"github.com/komponen/marketplace/pkg/respbuilder"
	"github.com/komponen/marketplace/transport/restapi/handlerapp"
)

// AppCreate
// POST /api/v1/vendors/{vendor}/apps
func AppCreate(ctx context.Context, components openapi3.Components, path map[string]*openapi3.PathItem) {
	const scopedSchemaName = "AppCreate"
	const routeName = "Create New App"
	const pathRoute = "/api/v1/vendors/{vendor}/apps"

	// --- Request schema
	reqStruct := handlerapp.CreateAppReq{
		ID:   "mailer",
		Name: "Mailer",
		Type: "application",
	}

	// generate request
	outReq := MustNewSchemaGenerator(ctx, scopedSchemaName+".", reqStruct)
	reqSchemaName := outReq.ParentSchemaName
	for s, ref := range outReq.Schemas {
		components.Schemas[s] = ref
	}

	reqBody := openapi3.NewRequestBody()
	reqBody.WithJSONSchemaRef(&openapi3.SchemaRef{
		Ref: fmt.Sprintf("#/components/schemas/%s", reqSchemaName),
	})

	components.RequestBodies[scopedSchemaName] = &openapi3.RequestBodyRef{
		Value: reqBody,
	}

	// --- Response schema
	respStruct := handlerapp.AppResp{
		App: appsvc.App{
			ID:        "_v1.mailer",
			Vendor:    "_v1",
			Name:      "Mailer",
			Type:      "application",
			Version:   1,
			CreatedBy: "dev@example.com",
			CreatedOn: time.Now(),
			UpdatedOn: time.Now(),
		},
	}

	// generate response and add to components
	resp := respbuilder.Success(ctx, respStruct)
	outResp := MustNewSchemaGenerator(ctx, scopedSchemaName+".Resp201.", resp)
	for s, ref := range outResp.Schemas {
		components.Schemas[s] = ref
	}

	// --- final spec
	op := openapi3.NewOperation()
	op.Tags = []string{"App"}
	op.Summary = routeName
	op.Description = "Will register a new app under the vendor. The final app id is \"<vendor>.<id>\"."
	op.OperationID = scopedSchemaName

	op.RequestBody = &openapi3.RequestBodyRef{
		Ref: fmt.Sprintf("#/components/requestBodies/%s", scopedSchemaName), // refer to generated name we define above
	}
	op.AddResponse(http.StatusCreated, openapi3.NewResponse().WithJSONSchemaRef(
		&openapi3.SchemaRef{
			Ref: fmt.Sprintf("#/components/schemas/%s", outResp.ParentSchemaName),
		},
	).WithDescription("desc"))

	_, exist := path[pathRoute]
	if !exist {
		path[pathRoute] = &openapi3.PathItem{}
	}

	path[pathRoute].Post = op
}
