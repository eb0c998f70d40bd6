package genapidoc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/komponen/marketplace/internal/svc/vendorsvc"
	"github.com/komponen/marketplace/pkg/respbuilder"
	"github.com/komponen/marketplace/transport/restapi/handlervendor"
)

// VendorCreate
// POST /api/v1/vendors
func VendorCreate(ctx context.Context, components openapi3.Components, path map[string]*openapi3.PathItem) {
	const scopedSchemaName = "VendorCreate"
	const routeName = "Create New Vendor"
	const pathRoute = "/api/v1/vendors"

	// --- Request schema
	reqStruct := handlervendor.CreateVendorReq{
		Name:  "Acme Data",
		Email: "contact@acme.example.com",
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
	respStruct := handlervendor.VendorResp{
		Vendor: vendorsvc.Vendor{
			ID:        "_v123456789",
			Name:      "Acme Data",
			Email:     "contact@acme.example.com",
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
	op.Tags = []string{"Vendor"}
	op.Summary = routeName
	op.Description = "Will create a vendor account with a generated id. The creator becomes the first member, approval waits for an admin."
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
