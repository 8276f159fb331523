package induce

// DefaultPrompt asks the model to distill a completed session into
// reusable workflows. {{task}} and {{steps}} are filled in by Induce.
const DefaultPrompt = `You are analyzing a successful web automation session to extract reusable workflows.

The task was:
{{task}}

The steps taken, in order:
{{steps}}

Extract the generalizable multi-step procedures from this session. For each workflow:
- Give it a short stable id (lowercase, hyphenated, e.g. "flight-search").
- Describe what it accomplishes in one sentence.
- Record each step's page state, the reasoning for the action, and the action itself.
- Replace session-specific values (search terms, names, dates) with {{placeholder}} slots so the workflow applies to future runs.
- Set the domain to the site it applies to, or leave it empty if the procedure is site-independent.

Only extract procedures that would genuinely transfer to a future session. Do not record one-off navigation, scrolling, or error recovery. If nothing generalizes, return an empty workflows list.`
