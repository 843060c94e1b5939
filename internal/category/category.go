// Package category defines the fixed set of archive categories and the
// extension table used to map files onto them.
package category

import "strings"

// Category is the top-level folder an organized item is filed under.
type Category string

const (
	Documents   Category = "documents"
	Photos      Category = "photos"
	Videos      Category = "videos"
	Audio       Category = "audio"
	Archives    Category = "archives"
	Models3D    Category = "3d_models"
	Executables Category = "executables"
	Fonts       Category = "fonts"
	Projects    Category = "projects"
	Duplicates  Category = "duplicates"
	Other       Category = "other"
)

// String returns the folder name of the category.
func (c Category) String() string {
	return string(c)
}

// extensionMap is read-only after package init. Keys are lowercase and carry
// no leading dot.
var extensionMap = map[string]Category{
	"pdf": Documents, "docx": Documents, "doc": Documents, "txt": Documents, "rtf": Documents,
	"xlsx": Documents, "xls": Documents, "pptx": Documents, "ppt": Documents, "csv": Documents,
	"epub": Documents, "mobi": Documents, "odt": Documents, "ods": Documents, "odp": Documents,

	"jpg": Photos, "jpeg": Photos, "png": Photos, "gif": Photos, "webp": Photos, "tiff": Photos,
	"tif": Photos, "bmp": Photos, "heic": Photos, "svg": Photos, "ai": Photos, "psd": Photos,

	"mp4": Videos, "mov": Videos, "avi": Videos, "mkv": Videos, "wmv": Videos, "flv": Videos,
	"webm": Videos,

	"mp3": Audio, "wav": Audio, "aac": Audio, "flac": Audio, "ogg": Audio, "m4a": Audio,
	"aiff": Audio,

	"zip": Archives, "rar": Archives, "7z": Archives, "tar": Archives, "gz": Archives, "bz2": Archives,
	"iso": Archives, "dmg": Archives,

	"stl": Models3D, "obj": Models3D, "gcode": Models3D, "3mf": Models3D, "fbx": Models3D,
	"blend": Models3D,

	"exe": Executables, "msi": Executables, "app": Executables, "bat": Executables, "sh": Executables,

	"ttf": Fonts, "otf": Fonts, "woff": Fonts, "woff2": Fonts,

	"py": Projects, "js": Projects, "html": Projects, "css": Projects, "cpp": Projects, "c": Projects,
	"h": Projects, "java": Projects, "json": Projects, "xml": Projects, "yml": Projects, "md": Projects,
}

// ForExtension returns the category for a lowercase extension without the
// leading dot. Unknown and empty extensions map to Other.
func ForExtension(ext string) Category {
	if c, ok := extensionMap[strings.ToLower(ext)]; ok {
		return c
	}
	return Other
}

// SplitExt splits a file name into base and suffix the way the archive
// layout expects: the suffix starts at the last dot, leading dots belong
// to the base (".bashrc" has no suffix), and the suffix keeps its dot.
func SplitExt(name string) (base, suffix string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	if strings.Trim(name[:i], ".") == "" {
		return name, ""
	}
	return name[:i], name[i:]
}

// Extension returns the lowercase extension of name without the dot, or ""
// when the name has none.
func Extension(name string) string {
	_, suffix := SplitExt(name)
	return strings.ToLower(strings.TrimPrefix(suffix, "."))
}

// ForName classifies a file name by its extension alone.
func ForName(name string) Category {
	return ForExtension(Extension(name))
}
