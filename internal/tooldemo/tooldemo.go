// Package tooldemo runs an assistant with callback tools in streaming mode and
// prints what happens along the way.
package tooldemo

import (
	"context"
	"fmt"
	"io"

	"github.com/casualjim/switchboard/agent"
	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/runner"
	"github.com/casualjim/switchboard/tool"
	"github.com/fatih/color"
)

const (
	DefaultPrompt = "Please tell me 5 jokes."
	NotFound      = "Not Found"
)

var students = map[int]string{
	1: "Ali",
	2: "Ahmed",
	3: "Sara",
	4: "John",
	5: "Doe",
	6: "Jane",
	7: "Smith",
	8: "Emily",
}

// GetWeather describes the weather at location. unit defaults to C.
func GetWeather(location, unit string) string {
	if unit == "" {
		unit = "C"
	}
	return fmt.Sprintf("The weather in %s is 22 degrees %s.", location, unit)
}

// FindStudent returns the name of the student with the given roll number.
func FindStudent(studentRoll int) string {
	if name, ok := students[studentRoll]; ok {
		return name
	}
	return NotFound
}

var (
	WeatherTool = tool.Must(GetWeather,
		tool.Name("get_weather"),
		tool.Description("Fetch the weather for a given location, returning a short description."),
		tool.Parameters("location", "unit"),
		tool.Optional("unit"),
	)
	StudentFinderTool = tool.Must(FindStudent,
		tool.Name("piaic_student_finder"),
		tool.Description("Find a student by their roll number."),
		tool.Parameters("student_roll"),
	)
)

func NewAgent(model api.Model) api.Agent {
	return agent.New(
		agent.Name("Assistant"),
		agent.Instructions("You are a helpful assistant."),
		agent.Model(model),
		agent.Tools(WeatherTool, StudentFinderTool),
	)
}

// Run streams a run of a on prompt, printing agent changes, tool calls, tool
// outputs and messages to w.
func Run(ctx context.Context, w io.Writer, a api.Agent, prompt string, options ...runner.Option) (*runner.Result, error) {
	s := runner.RunStreamed(ctx, a, runner.Text(prompt), options...)
	fmt.Fprintln(w, color.New(color.Bold).Sprint("=== Run starting ==="))

	for ev := range s.Events() {
		switch ev := ev.(type) {
		case runner.AgentUpdatedEvent:
			fmt.Fprintf(w, "Agent updated: %s\n", color.MagentaString(ev.Agent.Name()))
		case runner.RunItemEvent:
			switch ev.Name {
			case runner.ToolCallItem:
				fmt.Fprintln(w, color.YellowString("-- Tool was called"))
			case runner.ToolCallOutputItem:
				fmt.Fprintf(w, "%s %s\n", color.YellowString("-- Tool output:"), ev.Item.Content)
			case runner.MessageOutputItem:
				fmt.Fprintf(w, "%s\n %s\n", color.GreenString("-- Message output:"), ev.Item.Content)
			}
		}
	}
	return s.Wait(ctx)
}
