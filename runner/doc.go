// Package runner drives agents through the model loop.
//
// A run starts with an agent and some input. Every turn renders the active
// agent's instructions, calls its model with its tools and hand-off tools and
// acts on the answer:
//
//   - tool calls are executed and their output appended to the thread
//   - a hand-off call switches the active agent
//   - an assistant message without tool calls is the final output
//
// Input guardrails of the starting agent run before the first model call and
// output guardrails of the agent that produced the final output run on it.
//
//	res, err := runner.Run(ctx, triage, runner.Text("I want a refund"))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.LastAgent.Name(), res.FinalOutput)
//
// RunStreamed reports the same run as a stream of events while it happens.
package runner
