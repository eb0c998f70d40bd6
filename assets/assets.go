package assets

import "embed"

const ServiceName = "marketplace"

//go:embed swaggerui
var SwaggerUI embed.FS
