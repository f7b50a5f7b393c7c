// Package location splits image URLs into a base URL and a public ID.
//
// # Overview
//
// Transformation URLs are assembled as
//
//	BaseURL + segments + "/" + PublicID
//
// so the first job of any builder is to find where the asset identifier
// starts. [Parse] classifies an input URL into one of three dialects and
// splits it accordingly:
//
//   - [DialectVendor]: nested-path URLs served under "chanel.com/images/".
//     A leading "t_<name>" template segment followed by "///" belongs to the
//     base URL, not to the asset.
//   - [DialectCDN]: REST-style "https://res.cloudinary.com/<cloud>/<type>/<delivery>/"
//     URLs. Everything after the fixed three-segment prefix is the public ID,
//     including folders and any transformation segments already present.
//   - [DialectGeneric]: anything else. The last path segment is the public ID.
//
// # Usage
//
//	loc := location.Parse("https://res.cloudinary.com/demo/image/upload/folder/pic.png")
//	fmt.Println(loc.BaseURL)  // https://res.cloudinary.com/demo/image/upload/
//	fmt.Println(loc.PublicID) // folder/pic.png
//
// Parse never fails. Inputs that look like a special dialect but do not fit
// its grammar fall through to [DialectGeneric].
//
// # Re-parsing
//
// CDN URLs that already carry transformation segments keep them inside the
// public ID. Compiling new blocks over such a location nests the old
// transformations after the new ones rather than replacing them.
package location
