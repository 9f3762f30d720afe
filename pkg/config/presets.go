package config

import (
	"fmt"
	"slices"
	"sort"
)

// Shared directory exclusions of the Flutter presets. Entries with a '/'
// prune that root-relative path only.
var flutterExcludeDirs = []string{
	"build", ".dart_tool", ".git", ".idea", ".vscode", ".gradle", "Pods",
	"Assets.xcassets", "Runner.xcodeproj", "Runner.xcworkspace",
	"ios/Flutter", "android/app/build", "node_modules",
}

var presets = map[string]Config{
	"full-project": {
		Root:       ".",
		OutputName: "all_project_code.txt",
		Extensions: []string{
			".dart", ".yaml",
			".java", ".kt", ".xml", ".gradle", ".properties",
			".h", ".m", ".swift", ".plist", ".xib", ".storyboard",
			".json", ".md",
		},
		Filenames:   []string{"Podfile", "Gemfile", "AndroidManifest.xml", "Info.plist", "pubspec.yaml", "build.gradle"},
		ExcludeDirs: flutterExcludeDirs,
		MaxFileSize: "1MiB",
		Encoding:    "utf-8",
	},
	"native-only": {
		Root:       ".",
		OutputName: "all_native_code.txt",
		Extensions: []string{
			".java", ".kt", ".xml", ".gradle", ".properties",
			".h", ".m", ".swift", ".plist", ".xib", ".storyboard",
		},
		Filenames:   []string{"Podfile", "Gemfile", "AndroidManifest.xml", "Info.plist", "build.gradle"},
		ExcludeDirs: append(slices.Clone(flutterExcludeDirs), "lib"),
		MaxFileSize: "1MiB",
		Encoding:    "utf-8",
	},
	"widget-deep-dive": {
		Root:       ".",
		OutputName: "widget_deep_dive_bundle.txt",
		ExplicitFiles: []string{
			"lib/core/services/widget_update_service.dart",
			"ios/VibeWidget/VibeWidget.swift",
			"ios/VibeWidget/PlayVibeIntent.swift",
			"ios/Runner/Info.plist",
			"ios/Runner/AudioManager.swift",
			"android/app/src/main/res/layout/nock_widget_layout.xml",
			"android/app/src/main/res/layout/squad_widget_layout.xml",
			"android/app/src/main/kotlin/com/nock/nock/NockWidgetProvider.kt",
			"android/app/src/main/kotlin/com/nock/nock/NockAudioService.kt",
			"android/app/src/main/AndroidManifest.xml",
			"android/app/build.gradle",
			"ios/Podfile",
		},
		MaxFileSize: "0",
		Encoding:    "utf-8",
	},
	"app-sources": {
		Root:          ".",
		OutputName:    "all_project_code.txt",
		Subdirs:       []string{"lib", "android", "ios"},
		Extensions:    []string{".dart", ".kt", ".java", ".xml", ".gradle", ".swift", ".h", ".m", ".plist", ".yaml", ".sh"},
		AlwaysInclude: []string{"pubspec.yaml", "ios/Runner.xcodeproj/project.pbxproj", "ios/Podfile"},
		ExcludeDirs:   []string{"build", ".dart_tool", ".idea", ".gradle", "Pods", "node_modules"},
		MaxFileSize:   "0",
		Encoding:      "utf-8",
	},
}

// Preset returns a copy of the named preset.
func Preset(name string) (*Config, error) {
	p, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames())
	}
	cfg := p
	cfg.Preset = name
	cfg.Extensions = slices.Clone(p.Extensions)
	cfg.Filenames = slices.Clone(p.Filenames)
	cfg.ExcludeDirs = slices.Clone(p.ExcludeDirs)
	cfg.Ignore = slices.Clone(p.Ignore)
	cfg.ExplicitFiles = slices.Clone(p.ExplicitFiles)
	cfg.Subdirs = slices.Clone(p.Subdirs)
	cfg.AlwaysInclude = slices.Clone(p.AlwaysInclude)
	return &cfg, nil
}

// PresetNames lists the available presets in name order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
