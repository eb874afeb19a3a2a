// Package generator renders pages and writes static builds.
//
// A build renders every enabled page once per environment and writes it
// under <build dir>/<env>/, next to a copy of the source assets/ tree:
//
//	gen := generator.New(src, engine, generator.WithBuildDir("web"))
//	report, err := gen.Build(ctx, "prod")
//
// The local environment is rendered on demand (GeneratePage) and never
// written.
package generator
