package genapidoc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/komponen/marketplace/internal/svc/iconsvc"
	"github.com/komponen/marketplace/pkg/respbuilder"
)

// IconUploadLink
// POST /api/v1/vendors/{vendor}/apps/{app_id}/icon
func IconUploadLink(ctx context.Context, components openapi3.Components, path map[string]*openapi3.PathItem) {
	const scopedSchemaName = "IconUploadLink"
	const routeName = "Get Icon Upload Link"
	const pathRoute = "/api/v1/vendors/{vendor}/apps/{app_id}/icon"

	// --- Response schema
	respStruct := iconsvc.OutGetUploadLink{
		Link:      "https://bucket.s3.amazonaws.com/icons/_v1.mailer/upload.png?X-Amz-Signature=...",
		ExpiresIn: 3600,
	}

	// generate response and add to components
	resp := respbuilder.Success(ctx, respStruct)
	outResp := MustNewSchemaGenerator(ctx, scopedSchemaName+".Resp200.", resp)
	for s, ref := range outResp.Schemas {
		components.Schemas[s] = ref
	}

	// --- final spec
	op := openapi3.NewOperation()
	op.Tags = []string{"Icon"}
	op.Summary = routeName
	op.Description = "Will issue a signed URL to upload the raw icon. Processing happens when the storage event arrives."
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

	path[pathRoute].Post = op
}
