// Command rtk evaluates Jsonnet environments, exports their rendered
// manifests to a file tree, and diffs or applies them against a live
// Kubernetes cluster.
package main

func main() {
	Execute()
}
