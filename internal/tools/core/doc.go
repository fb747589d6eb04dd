// Package core provides the filesystem, search, code-intelligence, and
// refactoring tools recognized by the Agent Core's tool registry.
//
// Tools:
//   - view_file: read file contents, optionally by line range
//   - create_file: create a file, refusing to overwrite unless flagged
//   - str_replace_editor: exact-then-fuzzy single-file text replacement
//   - delete_file: delete a file
//   - list_files: list directory contents
//   - search: text/regex search, preferring ripgrep when present
//   - glob, grep, search_code: lower-level search primitives search composes
//   - code_context, code_analysis, symbol_search, dependency_analyzer,
//     advanced_search: read-only queries against the Code Intelligence Engine
//   - refactoring_assistant, multi_file_edit: plan and apply refactors
//     through the Multi-File Editor
//   - task_planner: run the Task Planning Subsystem's analyze/plan/validate
//     chain as a single tool call
package core
