/*
Package tool turns plain Go functions into tools a model can call.

A tool is described by its function signature: the parameters become the properties of a JSON
schema object, named through the Parameters option (the default names are param0, param1, ...).
Parameters of type context.Context and types.ContextVars are injected at call time and never
appear in the schema.

	func getWeather(location string, unit string) string {
		if unit == "" {
			unit = "C"
		}
		return fmt.Sprintf("The weather in %s is 22 degrees %s.", location, unit)
	}

	weather := tool.Must(getWeather,
		tool.Name("get_weather"),
		tool.Description("Get the weather for a given location"),
		tool.Parameters("location", "unit"),
		tool.Optional("unit"),
	)

# Results

The first result of the function is rendered as the tool output:

  - strings are returned as-is
  - numbers, booleans and time.Time values are formatted
  - encoding.TextMarshaler and fmt.Stringer values use their text form
  - types.ContextVars values are merged into the run's context variables
  - anything else is JSON encoded

A non-nil error, either as the only result or as the last one, fails the call.
*/
package tool
