package avro

import "strings"

// FullyQualify resolves name against an enclosing namespace: if name already
// contains a dot it is returned unchanged, otherwise namespace is prepended
// (an empty namespace yields the bare name back).
func FullyQualify(name, enclosingNamespace string) string {
	if strings.Contains(name, ".") {
		return name
	}
	if enclosingNamespace == "" {
		return name
	}
	return enclosingNamespace + "." + name
}

// splitName divides a fully-qualified name into its namespace and bare name,
// namespace being everything before the last dot.
func splitName(fullName string) (namespace, name string) {
	i := strings.LastIndex(fullName, ".")
	if i < 0 {
		return "", fullName
	}
	return fullName[:i], fullName[i+1:]
}
