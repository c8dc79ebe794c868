package config

const (
	//? These paths must match the paths in the embed directive

	StaticLocalDir = "static"
	StaticUrlPath  = "/" + StaticLocalDir + "/"

	WikiLocalDir = "wiki"
	WikiUrlPath  = "/" + WikiLocalDir + "/"

	TemplatesLocalDir = "templates"

	TemplateLayout = "layout.html"
	TemplateIndex  = "index.html"
	TemplatePage   = "page.html"
	TemplateEditor = "editor.html"
)
