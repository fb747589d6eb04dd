package refactor

// globalDenylist names common runtime/language globals that refactoring
// analyses must never treat as user symbols (spec §4.3's closing note,
// used by extract-function parameter inference in this package).
var globalDenylist = map[string]bool{
	"console": true, "window": true, "document": true, "process": true,
	"Math": true, "JSON": true, "Array": true, "Object": true,
	"Promise": true, "Error": true, "TypeError": true, "RangeError": true,
	"String": true, "Number": true, "Boolean": true, "Symbol": true,
	"Map": true, "Set": true, "WeakMap": true, "WeakSet": true,
	"Date": true, "RegExp": true, "Function": true, "Proxy": true,
	"Reflect": true, "Infinity": true, "NaN": true, "undefined": true,
	"null": true, "true": true, "false": true, "this": true, "super": true,
	"globalThis": true, "require": true, "module": true, "exports": true,
	"__dirname": true, "__filename": true, "setTimeout": true,
	"setInterval": true, "clearTimeout": true, "clearInterval": true,
	"setImmediate": true, "fetch": true, "Buffer": true, "performance": true,
	"self": true, "navigator": true, "location": true, "history": true,
	"localStorage": true, "sessionStorage": true, "alert": true,
	"confirm": true, "prompt": true, "structuredClone": true,
	"encodeURIComponent": true, "decodeURIComponent": true,
	"parseInt": true, "parseFloat": true, "isNaN": true, "isFinite": true,
}

// isGlobalIdentifier reports whether name is in the global denylist.
func isGlobalIdentifier(name string) bool {
	return globalDenylist[name]
}
