package command

import (
	"context"
	"fmt"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/internal/prompt"
	"github.com/yaroslav/gcompute/models"
)

// PromptForMachineType asks the user to pick a machine type, cheapest
// families first.
func (inv *Invocation) PromptForMachineType(ctx context.Context) (models.Resource, error) {
	list, err := inv.Client.All(ctx, inv.Client.CollectionPath("", compute.CollectionMachineTypes), compute.ListOptions{})
	if err != nil {
		return nil, err
	}
	return inv.Prompter.Choose(list.Items(), "machine type", prompt.ChoiceOptions{
		AutoSelect: true,
		SortScore:  prompt.MachineTypeSortScore,
	})
}

// PromptForImage asks the user to pick one of the public images or the
// images of the project.
func (inv *Invocation) PromptForImage(ctx context.Context) (models.Resource, error) {
	var choices []models.Resource
	for _, project := range []string{compute.GoogleProject, inv.Project()} {
		path := inv.Namer.CollectionPath(project, names.GlobalZone, compute.CollectionImages)
		list, err := inv.Client.All(ctx, path, compute.ListOptions{})
		if err != nil {
			return nil, err
		}
		choices = append(choices, list.Items()...)
	}

	return inv.Prompter.Choose(choices, "image", prompt.ChoiceOptions{
		AutoSelect: true,
		Text: func(r models.Resource) string {
			return inv.present(r.SelfLink())
		},
	})
}

// PromptForKernel asks the user to pick one of the public kernels.
func (inv *Invocation) PromptForKernel(ctx context.Context) (models.Resource, error) {
	path := inv.Namer.CollectionPath(compute.GoogleProject, names.GlobalZone, compute.CollectionKernels)
	list, err := inv.Client.All(ctx, path, compute.ListOptions{})
	if err != nil {
		return nil, err
	}

	return inv.Prompter.Choose(list.Items(), "kernel", prompt.ChoiceOptions{
		AutoSelect: true,
		Text: func(r models.Resource) string {
			return inv.present(inv.Namer.NormalizeGlobalResourceName(compute.GoogleProject, compute.CollectionKernels, r.Name()))
		},
	})
}

// PromptForDisk asks the user to pick a disk of zone. The only disk is
// never picked without asking.
func (inv *Invocation) PromptForDisk(ctx context.Context, zone string) (models.Resource, error) {
	list, err := inv.Client.All(ctx, inv.Client.CollectionPath(zone, compute.CollectionDisks), compute.ListOptions{})
	if err != nil {
		return nil, err
	}
	return inv.Prompter.Choose(list.Items(), "disk", prompt.ChoiceOptions{})
}

func (inv *Invocation) present(value string) string {
	return fmt.Sprint(inv.Printer.Presenter.PresentElement(value))
}
