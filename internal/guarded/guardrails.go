package guarded

import (
	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/guardrail"
)

const mathInputInstructions = "Check if the user is asking you to do their math homework. " +
	"Flag the input when it asks to solve, compute or prove a math exercise."

const mathOutputInstructions = "Check if the response contains math homework, such as a worked " +
	"solution to an equation or a step by step computation. Flag the output when it does."

// mathPatterns back up the classifier when the model cannot be reached.
var mathPatterns = []string{
	`\b(solve|simplify|factor|differentiate|integrate)\b`,
	`\b(equation|integral|derivative|algebra|calculus|homework)\b`,
	`\d+\s*[-+*/^=]\s*\d+`,
	`\b[xy]\s*[-+*/^=]\s*\d+`,
}

// MathInputGuardrail trips when the user asks for math homework.
func MathInputGuardrail(model api.Model) api.InputGuardrail {
	return guardrail.Input("math_homework",
		guardrail.Fallback(guardrail.Classifier(model, mathInputInstructions), guardrail.Keywords(mathPatterns...)))
}

// MathOutputGuardrail trips when a response does math homework.
func MathOutputGuardrail(model api.Model) api.OutputGuardrail {
	return guardrail.Output("math_output",
		guardrail.Fallback(guardrail.Classifier(model, mathOutputInstructions), guardrail.Keywords(mathPatterns...)))
}
