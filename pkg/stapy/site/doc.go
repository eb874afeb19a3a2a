// Package site reads a stapy source directory: templates, layout data and
// page records.
//
// A source directory looks like:
//
//	layout/common.json        data shared by every page
//	layout/html.json          data shared by every .html page
//	layout/blog/common.json   data shared by pages under blog/
//	pages/blog/post.html.json the page's own data
//	template/...              template files referenced by records
//	assets/...                files copied verbatim into each build
//
// Source implements template.Source. Page records are kept in a
// cache.Store snapshot until Reset is called.
package site
