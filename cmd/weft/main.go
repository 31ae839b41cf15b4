// Package main provides the Weft ML Framework CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/janpfeifer/must"

	"github.com/weft-ml/weft/backend"
	_ "github.com/weft-ml/weft/backend/cpu"
	_ "github.com/weft-ml/weft/backend/webgpu"
	"github.com/weft-ml/weft/graph"
	"github.com/weft-ml/weft/tensor"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("Weft ML Framework %s\n", version)
		return
	}
	if len(os.Args) > 1 && os.Args[1] == "demo" {
		demo(os.Args[2:])
		return
	}

	fmt.Println("Weft ML Framework - Expression Graphs for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  demo       Build and evaluate a small expression graph")
}

// demo builds a tiny softmax classifier graph, runs one forward/backward
// pass, and reports gradients and memory use. With -dot it prints the graph
// in Graphviz format instead.
func demo(args []string) {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	var (
		device = fs.String("backend", "", `device to run on, e.g. "cpu" or "webgpu:0" (default: $WEFT_BACKEND, then cpu)`)
		seed   = fs.Uint64("seed", 42, "random seed for dropout masks")
		clip   = fs.Float64("clip", 0, "absolute clip bound for matrix products (0 disables)")
		dot    = fs.Bool("dot", false, "print the graph in Graphviz dot format and exit")
	)
	must.M(fs.Parse(args))

	be := must.M1(backend.FromConfig(*device, *seed))
	be.SetClip(float32(*clip))
	g := graph.New(be)

	// y = softmax(relu(x·w) + b), loss = sum(log-softmax masked by labels).
	x := must.M1(g.Const(shape(2, 3), []float32{0.5, -1, 2, 1.5, 0.25, -0.75}))
	w := must.M1(g.Param(shape(3, 4), []float32{
		0.1, 0.2, -0.1, 0.3,
		-0.2, 0.4, 0.1, -0.3,
		0.3, -0.1, 0.2, 0.1,
	}))
	b := must.M1(g.Param(shape(1, 4), []float32{0.01, -0.02, 0.03, 0}))

	h := must.M1(g.Dot(x, w))
	h = must.M1(g.Plus(h, b))
	h = must.M1(g.ReLU(h))
	h = must.M1(g.LogSoftmax(h))

	labels := must.M1(g.Const(shape(2, 4), []float32{0, 1, 0, 0, 0, 0, 0, 1}))
	picked := must.M1(g.Mult(h, labels))
	loss := must.M1(g.Neg(must.M1(g.Sum(picked, tensor.AxisAll))))

	if *dot {
		fmt.Print(g.Graphviz())
		return
	}

	must.M(g.Forward(loss))
	must.M(g.Backward(loss))
	must.M(be.Synchronize())

	fmt.Printf("device:  %s\n", be.DeviceID())
	fmt.Printf("loss:    %.6f\n", must.M1(g.Val(loss)).Float32()[0])
	fmt.Printf("grad w:  %.4f\n", must.M1(g.Grad(w)).Float32())
	fmt.Printf("grad b:  %.4f\n", must.M1(g.Grad(b)).Float32())
	fmt.Printf("memory:  %s\n", g.MemoryStats())
}

func shape(dims ...int) tensor.Shape {
	return must.M1(tensor.NewShape(dims...))
}
