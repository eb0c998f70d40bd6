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

// AppCatalog
// GET /api/v1/apps
func AppCatalog(ctx context.Context, components openapi3.Components, path map[string]*openapi3.PathItem) {
	const scopedSchemaName = "AppCatalog"
	const routeName = "List Published Apps"
	const pathRoute = "/api/v1/apps"

	// --- Response schema
	respStruct := handlerapp.ListPublishedAppsResp{
		Apps: []appsvc.App{
			{
				ID:        "_v1.mailer",
				Vendor:    "_v1",
				Name:      "Mailer",
				Type:      "application",
				IsPublic:  true,
				Version:   3,
				CreatedBy: "dev@example.com",
				CreatedOn: time.Now(),
				UpdatedOn: time.Now(),
			},
		},
	}

	// generate response and add to components
	resp := respbuilder.Success(ctx, respStruct)
	outResp := MustNewSchemaGenerator(ctx, scopedSchemaName+".Resp200.", resp)
	for s, ref := range outResp.Schemas {
		components.Schemas[s] = ref
	}

	// --- final spec
	op := openapi3.NewOperation()
	op.Tags = []string{"App"}
	op.Summary = routeName
	op.Description = "Anonymous catalog of public live apps. Soft deleted apps never show up here."
	op.OperationID = scopedSchemaName

	op.AddResponse(http.StatusOK, openapi3.NewResponse().WithJSONSchemaRef(
		&openapi3.SchemaRef{
			Ref: fmt.Sprintf("#/components/schemas/%s", outResp.ParentSchemaName),
		},
	).WithDescription("desc"))

	_, exist := path[pathRoute]
	if !exist {
		path[pathRoute] = &openapi3.PathItem{}
	}

	path[pathRoute].Get = op
}
