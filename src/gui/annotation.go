package gui

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"

	"element-digitizer/src/annotation"
	"element-digitizer/src/capture"
)

const (
	thumbMaxWidth  = 400
	thumbMaxHeight = 300
)

// SaveFunc persists one annotated element. done is invoked with the save
// outcome, possibly from another goroutine.
type SaveFunc func(module string, rec annotation.Record, bm capture.Bitmap, done func(error))

// AnnotationOptions configures one annotation window.
type AnnotationOptions struct {
	SoftwareVersion string
	Author          string
	OnSave          SaveFunc
	OnCancel        func()
}

// ShowAnnotationWindow opens the labeling form for a fresh capture. Safe to
// call from any goroutine; the window is built on the fyne main thread.
func ShowAnnotationWindow(a fyne.App, res *capture.Result, opts AnnotationOptions) {
	fyne.Do(func() {
		buildAnnotationWindow(a, res, opts)
	})
}

func buildAnnotationWindow(a fyne.App, res *capture.Result, opts AnnotationOptions) {
	win := a.NewWindow("Annotate Element")

	thumb := imaging.Fit(res.Bitmap.ToRGBA(), thumbMaxWidth, thumbMaxHeight, imaging.Lanczos)
	preview := canvas.NewImageFromImage(thumb)
	preview.FillMode = canvas.ImageFillContain
	preview.SetMinSize(fyne.NewSize(float32(thumb.Bounds().Dx()), float32(thumb.Bounds().Dy())))

	boxLabel := widget.NewLabel(fmt.Sprintf("Region %s (%dx%d)", res.Box, res.Box.Width(), res.Box.Height()))

	elementID := widget.NewEntry()
	elementID.SetPlaceHolder("submit_btn")
	elementName := widget.NewEntry()
	elementName.SetPlaceHolder("defaults to element_id")
	elementType := widget.NewSelect(annotation.ElementTypes, nil)
	elementType.SetSelected(annotation.ElementTypes[0])
	parentID := widget.NewEntry()
	parentID.SetPlaceHolder("optional")
	moduleName := widget.NewEntry()
	moduleName.SetText(annotation.DefaultModule)
	anchorID := widget.NewEntry()
	anchorID.SetPlaceHolder("optional")

	isEnabled := widget.NewCheck("enabled", nil)
	isEnabled.SetChecked(true)
	isVisible := widget.NewCheck("visible", nil)
	isVisible.SetChecked(true)
	tooltip := widget.NewEntry()

	defaultAction := widget.NewSelect(annotation.DefaultActions, nil)
	defaultAction.SetSelected(annotation.DefaultActions[0])
	outcomeDesc := widget.NewMultiLineEntry()
	outcomeDesc.SetMinRowsVisible(3)

	softwareVersion := widget.NewEntry()
	softwareVersion.SetText(opts.SoftwareVersion)
	author := widget.NewEntry()
	author.SetText(opts.Author)

	form := widget.NewForm(
		widget.NewFormItem("Element ID", elementID),
		widget.NewFormItem("Element Name", elementName),
		widget.NewFormItem("Element Type", elementType),
		widget.NewFormItem("Parent Element ID", parentID),
		widget.NewFormItem("Module", moduleName),
		widget.NewFormItem("Anchor ID", anchorID),
		widget.NewFormItem("State", container.NewHBox(isEnabled, isVisible)),
		widget.NewFormItem("Tooltip", tooltip),
		widget.NewFormItem("Default Action", defaultAction),
		widget.NewFormItem("Expected Outcome", outcomeDesc),
		widget.NewFormItem("Software Version", softwareVersion),
		widget.NewFormItem("Author", author),
	)

	var saveBtn *widget.Button
	cancelled := true

	saveBtn = widget.NewButton("Save", func() {
		rec := annotation.New(strings.TrimSpace(elementID.Text))
		rec.ElementName = strings.TrimSpace(elementName.Text)
		rec.ElementType = elementType.Selected
		if p := strings.TrimSpace(parentID.Text); p != "" {
			rec.ParentElementID = &p
		}
		rec.LocationInfo.BoundingBox = res.Box
		rec.LocationInfo.AnchorID = strings.TrimSpace(anchorID.Text)
		rec.StateInfo.IsEnabled = isEnabled.Checked
		rec.StateInfo.IsVisible = isVisible.Checked
		rec.StateInfo.Tooltip = strings.TrimSpace(tooltip.Text)
		rec.ActionInfo.DefaultAction = defaultAction.Selected
		rec.ActionInfo.ExpectedOutcomeDesc = strings.TrimSpace(outcomeDesc.Text)
		rec.Metadata.SoftwareVersion = strings.TrimSpace(softwareVersion.Text)
		rec.Metadata.Author = strings.TrimSpace(author.Text)

		if errs := rec.Validate(); len(errs) != 0 {
			dialog.ShowError(joinValidationErrors(errs), win)
			return
		}

		saveBtn.Disable()
		module := strings.TrimSpace(moduleName.Text)
		log.Printf("GUI: saving element %q in module %q", rec.ElementID, module)
		opts.OnSave(module, rec, res.Bitmap, func(err error) {
			fyne.Do(func() {
				if err != nil {
					saveBtn.Enable()
					dialog.ShowError(fmt.Errorf("save failed: %w", err), win)
					return
				}
				cancelled = false
				win.Close()
			})
		})
	})
	cancelBtn := widget.NewButton("Cancel", func() {
		win.Close()
	})

	win.SetOnClosed(func() {
		if cancelled && opts.OnCancel != nil {
			opts.OnCancel()
		}
	})

	buttons := container.NewHBox(saveBtn, cancelBtn)
	content := container.NewBorder(
		container.NewVBox(preview, boxLabel),
		buttons,
		nil, nil,
		container.NewVScroll(form),
	)
	win.SetContent(content)
	win.Resize(fyne.NewSize(520, 720))
	win.CenterOnScreen()
	win.Show()
}

func joinValidationErrors(errs []error) error {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return errors.New(strings.Join(parts, "\n"))
}
