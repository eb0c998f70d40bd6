package genapidoc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/komponen/marketplace/pkg/respbuilder"
	"github.com/komponen/marketplace/transport/restapi/handlerauth"
)

// AuthLogin
// POST /api/v1/auth/login
func AuthLogin(ctx context.Context, components openapi3.Components, path map[string]*openapi3.PathItem) {
	const scopedSchemaName = "AuthLogin"
	const routeName = "Login"
	const pathRoute = "/api/v1/auth/login"

	// --- Request schema
	reqStruct := handlerauth.LoginReq{
		Email:    "dev@example.com",
		Password: "secret",
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
	respStruct := handlerauth.LoginResp{
		AccessToken: "eyJraWQiOi...",
		ExpiresIn:   3600,
		TokenType:   "Bearer",
	}

	// generate response and add to components
	resp := respbuilder.Success(ctx, respStruct)
	outResp := MustNewSchemaGenerator(ctx, scopedSchemaName+".Resp200.", resp)
	for s, ref := range outResp.Schemas {
		components.Schemas[s] = ref
	}

	// --- final spec
	op := openapi3.NewOperation()
	op.Tags = []string{"Auth"}
	op.Summary = routeName
	op.Description = "Will exchange email and password for tokens issued by the user pool."
	op.OperationID = scopedSchemaName

	op.RequestBody = &openapi3.RequestBodyRef{
		Ref: fmt.Sprintf("#/components/requestBodies/%s", scopedSchemaName), // refer to generated name we define above
	}
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
